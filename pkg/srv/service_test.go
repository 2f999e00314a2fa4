package srv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingService struct {
	name  string
	order *[]string
}

func (r *recordingService) Start(ctx context.Context) error { return nil }

func (r *recordingService) Shutdown(ctx context.Context) error {
	*r.order = append(*r.order, r.name)
	return nil
}

func TestShutdownServices_ReverseOrder(t *testing.T) {
	var order []string
	services := []Service{
		&recordingService{name: "db", order: &order},
		&recordingService{name: "http", order: &order},
		NewCleanup(func() error {
			order = append(order, "cleanup")
			return nil
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ShutdownServices(ctx, services)

	assert.Equal(t, []string{"cleanup", "http", "db"}, order)
}
