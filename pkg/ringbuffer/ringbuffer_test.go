package ringbuffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRingBufferPushPullOrder(t *testing.T) {
	rb, err := New(4)
	require.NoError(t, err)

	require.True(t, rb.Push(1))
	require.True(t, rb.Push(2))
	require.True(t, rb.Push(3))

	v, ok := rb.Pull()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = rb.Pull()
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestRingBufferRejectsNonPowerOfTwo(t *testing.T) {
	_, err := New(3)
	require.Error(t, err)
}

func TestRingBufferPullBlocksUntilPush(t *testing.T) {
	rb, err := New(2)
	require.NoError(t, err)

	done := make(chan interface{})
	go func() {
		v, _ := rb.Pull()
		done <- v
	}()

	select {
	case <-done:
		t.Fatal("Pull returned before any Push")
	case <-time.After(50 * time.Millisecond):
	}

	rb.Push("x")

	select {
	case v := <-done:
		require.Equal(t, "x", v)
	case <-time.After(time.Second):
		t.Fatal("Pull never unblocked after Push")
	}
}

func TestRingBufferPushBlocksWhenFull(t *testing.T) {
	rb, err := New(2)
	require.NoError(t, err)

	require.True(t, rb.Push(1))
	require.True(t, rb.Push(2))

	pushed := make(chan bool)
	go func() {
		pushed <- rb.Push(3)
	}()

	select {
	case <-pushed:
		t.Fatal("Push returned while queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	_, ok := rb.Pull()
	require.True(t, ok)

	select {
	case ok := <-pushed:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Push never unblocked after a Pull freed space")
	}
}

func TestRingBufferCloseUnblocksPullAndPush(t *testing.T) {
	rb, err := New(2)
	require.NoError(t, err)
	require.True(t, rb.Push(1))
	require.True(t, rb.Push(2))

	pushed := make(chan bool)
	go func() { pushed <- rb.Push(3) }()

	pulled := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, ok := rb.Pull()
			pulled <- ok
		}()
	}

	rb.Close()

	require.False(t, <-pushed)

	seenFalse := false
	for i := 0; i < 3; i++ {
		if !<-pulled {
			seenFalse = true
		}
	}
	require.True(t, seenFalse)
}
