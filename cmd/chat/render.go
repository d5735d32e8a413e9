package main

import (
	"fmt"
	"os"

	"chat-relay/contract"
	"chat-relay/domain"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// renderEvent prints one inbound chat event. Own messages show up here
// too: the relay echoes the sender's broadcast back, and that echo is
// the only render.
func renderEvent(event domain.ChatEvent) {
	stamp := event.At.Local().Format("15:04:05")
	switch event.Kind {
	case domain.EventSystem:
		fmt.Printf("[%s] %s\n", stamp, color.New(color.FgYellow).Render(event.Content))
	case domain.EventMessage:
		name := color.New(color.FgGreen).Render(event.SenderName)
		fmt.Printf("[%s] [room %d] %s: %s\n", stamp, event.Room, name, event.Content)
	case domain.EventFile:
		name := color.New(color.FgCyan).Render(event.SenderName)
		fmt.Printf("[%s] [room %d] %s shared %s\n", stamp, event.Room, name, event.Content)
	case domain.EventTyping:
		fmt.Printf("[%s] %s\n", stamp, color.New(color.FgGray).Render(event.SenderName+" is typing..."))
	case domain.EventRead:
		// Read receipts stay silent in the terminal.
	}
}

// renderCommand prints relay acknowledgements and errors.
func renderCommand(cmd domain.ControlCommand) {
	switch cmd.Kind {
	case domain.CommandJoinRoomOK:
		fmt.Println(color.New(color.FgGreen).Render(fmt.Sprintf("joined room %d", cmd.Room)))
	case domain.CommandLeaveRoomOK:
		fmt.Println(color.New(color.FgGreen).Render(fmt.Sprintf("left room %d", cmd.Room)))
	case domain.CommandError:
		fmt.Println(renderError(fmt.Sprintf("relay reported an error for room %d", cmd.Room)))
	case domain.CommandRefresh:
		fmt.Println(color.New(color.FgYellow).Render("room list changed, refresh"))
	}
}

func renderError(message string) string {
	return color.New(color.FgRed).Render(message)
}

func printHistory(room domain.RoomID, messages []contract.StoredMessage) {
	if len(messages) == 0 {
		fmt.Printf("no persisted messages for room %d\n", room)
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Sender", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, m := range messages {
		table.Append([]string{
			m.At.Local().Format("15:04:05"),
			fmt.Sprintf("%d", m.Sender),
			m.Content,
		})
	}
	table.Render()
}
