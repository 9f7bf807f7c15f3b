package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{}

func TestPublishSubscribe(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var a, b []int
	unsubA := Subscribe(func(ctx context.Context, e ping) { a = append(a, e.N) })
	Subscribe(func(ctx context.Context, e ping) { b = append(b, e.N) })
	Subscribe(func(ctx context.Context, e pong) { t.Fatal("pong handler called for ping") })

	Publish(context.Background(), ping{N: 1})
	unsubA()
	unsubA()
	Publish(context.Background(), ping{N: 2})

	require.Equal(t, []int{1}, a)
	require.Equal(t, []int{1, 2}, b)
}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	unsub := Subscribe(func(ctx context.Context, e ping) { t.Fatal("unexpected event") })
	Publish(context.Background(), ping{})
	unsub()
}
