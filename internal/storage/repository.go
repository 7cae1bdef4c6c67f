package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTask(ctx context.Context, in Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTask(ctx context.Context, in Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error)

	SaveTemplate(ctx context.Context, in Template) error
	GetTemplate(ctx context.Context, id string) (Template, error)
	DeleteTemplate(ctx context.Context, id string) error

	CreateFixedEvent(ctx context.Context, in FixedEvent) error
	GetFixedEvent(ctx context.Context, id string) (FixedEvent, error)
	UpdateFixedEvent(ctx context.Context, in FixedEvent) error
	DeleteFixedEvent(ctx context.Context, id string) error
	ListFixedEvents(ctx context.Context, filter FixedEventListFilter) ([]FixedEvent, error)

	ReplaceBlocks(ctx context.Context, day string, blocks []Block) error
	ListBlocks(ctx context.Context, filter BlockListFilter) ([]Block, error)
	DeleteBlocks(ctx context.Context, day string) error
}
