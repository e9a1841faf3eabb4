package main

// Notifier blank imports. Each import registers a provider with the
// notifier registry; providers without settings stay disabled.

import (
	_ "github.com/Strob0t/seogov/internal/adapter/discord"
	_ "github.com/Strob0t/seogov/internal/adapter/email"
	_ "github.com/Strob0t/seogov/internal/adapter/slack"
)
