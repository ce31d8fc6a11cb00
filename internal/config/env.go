package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// LoadEnv loads environment variables from the .env file in the project root.
func LoadEnv() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Debug("[CONFIG] .env file not found or failed to load")
	} else {
		log.Info("[CONFIG] .env loaded successfully")
	}
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("[CONFIG] ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = x
}

func envFloat(key string, dst *float64) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnf("[CONFIG] ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = x
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	x, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("[CONFIG] ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = x
}
