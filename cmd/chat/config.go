package main

import "time"

type Config struct {
	ServerAddress   string        `env:"CHAT_SERVER_ADDR,default=localhost:9000" validate:"required"`
	MemberID        int           `env:"CHAT_MEMBER_ID,required=true" validate:"gt=0"`
	Nickname        string        `env:"CHAT_NICKNAME,required=true" validate:"required"`
	Status          string        `env:"CHAT_STATUS,default=online"`
	LogLevel        string        `env:"LOG_LEVEL,default=WARN" validate:"required"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	ConnectAttempts int           `env:"CONNECT_ATTEMPTS,default=3" validate:"gt=0"`
	ConnectDelay    time.Duration `env:"CONNECT_DELAY,default=2s"`
	HistoryLimit    int           `env:"HISTORY_LIMIT,default=20" validate:"gte=0"`
}
