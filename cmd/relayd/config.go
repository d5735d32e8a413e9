package main

type Config struct {
	Host           string `env:"HOST,default=0.0.0.0" validate:"required"`
	Port           int    `env:"PORT,default=9000" validate:"gt=0,lte=65535"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO" validate:"required"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true" validate:"required"`
}
