package cache

import (
	"context"
	"time"
)

// Noop — кеш-заглушка: всегда промахивается и ничего не хранит.
// Используется, когда redis не сконфигурирован.
type Noop struct{}

// Get всегда сообщает о промахе.
func (Noop) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }

// Set ничего не сохраняет.
func (Noop) Set(_ context.Context, _ string, _ any, _ time.Duration) error { return nil }

// Invalidate ничего не делает.
func (Noop) Invalidate(_ context.Context, _ string) error { return nil }
