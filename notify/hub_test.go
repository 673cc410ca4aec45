package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReplacesExistingClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := &Client{MemberID: "m1", Send: make(chan []byte, 1)}
	c2 := &Client{MemberID: "m1", Send: make(chan []byte, 1)}
	hub.Register <- c1
	hub.Register <- c2

	select {
	case _, ok := <-c1.Send:
		assert.False(t, ok, "displaced client's Send must be closed")
	case <-time.After(time.Second):
		t.Fatal("displaced client's Send was not closed; its write pump would block forever")
	}

	hub.Broadcast <- Message{MemberID: "m1", Content: "hello"}
	select {
	case msg := <-c2.Send:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("replacement client did not receive broadcast")
	}

	// The displaced connection's read pump still fires an unregister on
	// close; it must not tear down the replacement.
	hub.Unregister <- c1
	hub.Broadcast <- Message{MemberID: "m1", Content: "again"}
	select {
	case msg, ok := <-c2.Send:
		require.True(t, ok, "replacement client dropped after stale unregister")
		assert.Equal(t, "again", string(msg))
	case <-time.After(time.Second):
		t.Fatal("replacement client did not receive second broadcast")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &Client{MemberID: "m1", Send: make(chan []byte, 1)}
	hub.Register <- c
	hub.Unregister <- c

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Send not closed on unregister")
	}
}
