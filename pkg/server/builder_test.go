package server

import (
	"context"
	"testing"
)

func TestServerBuilderPanicsWithoutListener(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when Build is called without a Listener")
		}
	}()
	NewServerBuilder[NoConnectionData](nil).HandlerFn(echoHandler{}).Build()
}

func TestServerBuilderPanicsWithoutHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when Build is called without a HandlerFn")
		}
	}()
	ln := mustListen(t)
	defer ln.Close()
	NewServerBuilder[NoConnectionData](nil).Listener(ln).Build()
}

func TestServerBuilderNilNewDataUsesZeroValue(t *testing.T) {
	ln := mustListen(t)
	defer ln.Close()

	srv := NewServerBuilder[NoConnectionData](nil).
		Listener(ln).
		HandlerFn(echoHandler{}).
		ServerLimits(smallServerLimits()).
		Build()

	if srv == nil {
		t.Fatal("Build returned nil Server")
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
