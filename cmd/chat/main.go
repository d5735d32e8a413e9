package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"chat-relay/client"
	"chat-relay/contract"
	"chat-relay/directory"
	"chat-relay/domain"

	"github.com/Netflix/go-env"
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the relay client lifecycle: configuration, directory
// setup, bounded-retry connection, and the interactive loop.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return exitConfig, fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	profile := domain.Profile{
		ID:       domain.MemberID(config.MemberID),
		Nickname: config.Nickname,
		Status:   config.Status,
	}

	// 2. Directory: badger-backed when a path is configured, otherwise
	// an in-memory one seeded with our own profile.
	var dir contract.Directory
	if config.BadgerFilepath != "" {
		db, err := badgerdb.Open(badgerdb.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badgerdb.WARNING))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() { _ = db.Close() }()
		badgerDir := directory.NewBadger(db, log)
		if err = badgerDir.UpsertMember(profile.ID, profile.Nickname, profile.Status); err != nil {
			return exitRuntime, fmt.Errorf("register profile: %w", err)
		}
		dir = badgerDir
	} else {
		dir = directory.NewStatic().Add(profile.ID, profile.Nickname, profile.Status)
	}

	// 3. Context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Connect with the usual bounded retry policy.
	relayClient := client.New(log, config.ServerAddress)
	if err := relayClient.ConnectWithRetry(ctx, profile, config.ConnectAttempts, config.ConnectDelay); err != nil {
		return exitRuntime, fmt.Errorf("could not connect to relay at %s: %w", config.ServerAddress, err)
	}
	defer relayClient.Disconnect()

	relayClient.AddCommandListener(renderCommand)

	fmt.Printf(">>> Connected to %s as %s (#%d). Type /help for commands.\n",
		config.ServerAddress, profile.Nickname, profile.ID)

	// 5. Interactive loop. Stdin lines on one channel so Ctrl+C still
	// wins while the scanner blocks.
	session := &chatSession{
		client:       relayClient,
		directory:    dir,
		profile:      profile,
		historyLimit: config.HistoryLimit,
	}
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nBye.")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			quit, err := session.handle(line)
			if err != nil {
				fmt.Println(renderError(err.Error()))
			}
			if quit {
				return exitOK, nil
			}
		}
	}
}

// chatSession tracks the current room and interprets one input line at
// a time.
type chatSession struct {
	client       *client.Client
	directory    contract.Directory
	profile      domain.Profile
	historyLimit int
	currentRoom  domain.RoomID
	listenerIDs  map[domain.RoomID]client.ListenerID
}

func (s *chatSession) handle(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, s.say(line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		printHelp()
		return false, nil
	case "/quit":
		return true, nil
	case "/join":
		return false, s.join(fields[1:])
	case "/leave":
		return false, s.leave(fields[1:])
	case "/members":
		return false, s.members(fields[1:])
	case "/file":
		return false, s.file(fields[1:])
	case "/history":
		return false, s.history(fields[1:])
	default:
		return false, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
}

// say persists the message through the directory first, then transmits.
// The line is only rendered once the relay echoes it back.
func (s *chatSession) say(content string) error {
	if s.currentRoom == 0 {
		return fmt.Errorf("join a room first: /join <room>")
	}
	if _, err := s.directory.PersistMessage(s.currentRoom, s.profile.ID, content); err != nil {
		return fmt.Errorf("persist message: %w", err)
	}
	return s.client.SendMessage(s.currentRoom, content)
}

func (s *chatSession) join(args []string) error {
	room, err := roomArg(args)
	if err != nil {
		return err
	}
	if s.listenerIDs == nil {
		s.listenerIDs = make(map[domain.RoomID]client.ListenerID)
	}
	if _, registered := s.listenerIDs[room]; !registered {
		s.listenerIDs[room] = s.client.AddMessageListener(room, renderEvent)
	}
	if err = s.client.JoinRoom(room); err != nil {
		return err
	}
	s.currentRoom = room
	return nil
}

func (s *chatSession) leave(args []string) error {
	room, err := roomArg(args)
	if err != nil {
		return err
	}
	// LeaveRoom clears the room's message listeners itself.
	delete(s.listenerIDs, room)
	if err = s.client.LeaveRoom(room); err != nil {
		return err
	}
	if s.currentRoom == room {
		s.currentRoom = 0
	}
	return nil
}

// members pushes an authoritative member list: /members <room> <id,id,...>
func (s *chatSession) members(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: /members <room> <id,id,...>")
	}
	room, err := roomArg(args[:1])
	if err != nil {
		return err
	}
	var members []domain.MemberID
	for _, field := range strings.Split(args[1], ",") {
		id, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return fmt.Errorf("member id %q: %w", field, err)
		}
		members = append(members, domain.MemberID(id))
	}
	return s.client.UpdateRoomMembers(room, members)
}

func (s *chatSession) file(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: /file <room> <path>")
	}
	room, err := roomArg(args[:1])
	if err != nil {
		return err
	}
	return s.client.SendFile(room, args[1])
}

func (s *chatSession) history(args []string) error {
	room, err := roomArg(args)
	if err != nil {
		return err
	}
	messages, err := s.directory.RecentMessages(room, s.historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	printHistory(room, messages)
	return nil
}

func roomArg(args []string) (domain.RoomID, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a room id")
	}
	room, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("room id %q: %w", args[0], err)
	}
	return domain.RoomID(room), nil
}

func printHelp() {
	fmt.Println(`Commands:
  /join <room>              join a room and follow its messages
  /leave <room>             leave a room
  /members <room> <ids>     push the room's member list (comma-separated)
  /file <room> <path>       announce a file to a room
  /history <room>           show recent persisted messages
  /quit                     exit
Anything else is sent to the current room.`)
}
