package ipc_test

import (
	"context"
	"testing"
	"time"

	"convolens/internal/daemon"
	"convolens/internal/ipc"
	"convolens/internal/jobs"
	"convolens/internal/logging"
	"convolens/internal/testsupport"
)

func startServer(t *testing.T, d *daemon.Daemon, socketPath string, shutdown func()) *ipc.Client {
	t.Helper()

	srv, err := ipc.NewServer(context.Background(), socketPath, d, logging.NewNop(), shutdown)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(socketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func TestStatusAndListOverSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	defer d.Stop()

	client := startServer(t, d, cfg.SocketPath(), nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Status.Running {
		t.Fatal("expected running daemon status")
	}

	catalog := jobs.NewCatalog(st, cfg.RetentionWindow())
	job := &jobs.ConversationJob{
		SubjectKey: "abc.txt",
		FileName:   "chat.txt",
		Status:     jobs.StatusUploaded,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := catalog.PutJob(ctx, job); err != nil {
		t.Fatalf("PutJob: %v", err)
	}

	listing, err := client.List(ipc.ListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listing.Items) != 1 || listing.Items[0].SubjectKey != "abc.txt" {
		t.Fatalf("unexpected listing %+v", listing.Items)
	}

	filtered, err := client.List(ipc.ListRequest{Status: "processing"})
	if err != nil {
		t.Fatalf("List with filter: %v", err)
	}
	if len(filtered.Items) != 0 {
		t.Fatalf("expected empty filtered listing, got %+v", filtered.Items)
	}

	swept, err := client.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if swept.Removed != 0 {
		t.Fatalf("expected nothing to purge, removed %d", swept.Removed)
	}
}

func TestStopShutsDaemonDown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	stopped := make(chan struct{})
	client := startServer(t, d, cfg.SocketPath(), func() { close(stopped) })

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stopped response")
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown hook never fired")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status after stop: %v", err)
	}
	if status.Status.Running {
		t.Fatal("daemon still reports running after stop")
	}
}
