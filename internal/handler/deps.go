package handler

import (
	"roombot/internal/app/chat"
	"roombot/internal/configs"
)

// AppDeps holds what the status API reads from and writes to.
type AppDeps struct {
	Manager *chat.Manager
	Config  *configs.AppConfig
}
