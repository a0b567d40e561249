/**
 * @description
 * This file handles configuration management for the campaign-service.
 * It loads settings from environment variables, providing defaults for the
 * sweep schedule, the reminder window and the badge milestone threshold.
 */
package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the campaign service.
type Config struct {
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	ServerPort            string `mapstructure:"SERVER_PORT"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	MailServiceURL        string `mapstructure:"MAIL_SERVICE_URL"`
	PriceServiceURL       string `mapstructure:"PRICE_SERVICE_URL"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	DeadlineSweepSchedule string `mapstructure:"DEADLINE_SWEEP_SCHEDULE"`
	ReminderWindowHours   int    `mapstructure:"REMINDER_WINDOW_HOURS"`
	MilestoneThreshold    int64  `mapstructure:"MILESTONE_THRESHOLD"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DEADLINE_SWEEP_SCHEDULE", "0 * * * *") // At minute 0 of every hour.
	viper.SetDefault("REMINDER_WINDOW_HOURS", 24)
	viper.SetDefault("MILESTONE_THRESHOLD", 1000000)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("MAIL_SERVICE_URL")
	_ = viper.BindEnv("PRICE_SERVICE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("DEADLINE_SWEEP_SCHEDULE")
	_ = viper.BindEnv("REMINDER_WINDOW_HOURS")
	_ = viper.BindEnv("MILESTONE_THRESHOLD")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
