package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func manualStream() (chan []byte, chan error, *AudioStream, *int32) {
	chunks := make(chan []byte, 8)
	errs := make(chan error, 1)
	var stopped int32
	st := NewAudioStream(chunks, errs, func() { atomic.StoreInt32(&stopped, 1) })
	return chunks, errs, st, &stopped
}

func relaySession(t *testing.T) (*Session, *fakeTransport) {
	t.Helper()
	fx := newFixture(t, nil)
	fx.sess.HandleMessage(startEvent("MS1"))
	return fx.sess, fx.tp
}

func TestRelay_RoundTripAndMarker(t *testing.T) {
	sess, tp := relaySession(t)
	chunks, errs, st, _ := manualStream()

	done := make(chan struct{})
	go func() {
		sess.relay(nil, st)
		close(done)
	}()

	chunks <- []byte("abc")
	chunks <- []byte("def")
	close(chunks)
	close(errs)
	<-done

	if got := string(tp.mediaBytes()); got != "abcdef" {
		t.Fatalf("bytes out of order or lost: %q", got)
	}
	marks := tp.markNames()
	if len(marks) != 1 {
		t.Fatalf("expected one completion marker, got %d", len(marks))
	}
	if len(marks[0]) < len("audio_complete_") || marks[0][:15] != "audio_complete_" {
		t.Fatalf("unexpected marker name %q", marks[0])
	}
	if sess.Speaking() {
		t.Fatalf("speaking must clear after playback")
	}
}

func TestRelay_SupersededStreamDropsChunksAndMarker(t *testing.T) {
	sess, tp := relaySession(t)

	aChunks, aErrs, a, aStopped := manualStream()
	bChunks, bErrs, b, _ := manualStream()

	aDone := make(chan struct{})
	go func() {
		sess.relay(nil, a)
		close(aDone)
	}()
	aChunks <- []byte("A1")
	waitFor(t, time.Second, "first chunk relayed", func() bool { return len(tp.mediaBytes()) == 2 })

	bDone := make(chan struct{})
	go func() {
		sess.relay(nil, b)
		close(bDone)
	}()
	waitFor(t, time.Second, "first stream destroyed", func() bool { return atomic.LoadInt32(aStopped) == 1 })

	// anything still buffered on the old stream is dropped, not sent
	aChunks <- []byte("A2")
	close(aChunks)
	close(aErrs)
	<-aDone

	bChunks <- []byte("B1")
	close(bChunks)
	close(bErrs)
	<-bDone

	if got := string(tp.mediaBytes()); got != "A1B1" {
		t.Fatalf("superseded chunks must be dropped, got %q", got)
	}
	if n := len(tp.markNames()); n != 1 {
		t.Fatalf("superseded stream must not emit a marker, got %d marks", n)
	}
}

func TestRelay_StreamErrorSuppressesMarker(t *testing.T) {
	sess, tp := relaySession(t)
	chunks, errs, st, _ := manualStream()

	done := make(chan struct{})
	go func() {
		sess.relay(nil, st)
		close(done)
	}()
	chunks <- []byte("xy")
	errs <- errors.New("upstream reset")
	close(chunks)
	close(errs)
	<-done

	if n := len(tp.markNames()); n != 0 {
		t.Fatalf("errored stream must not emit a marker, got %d", n)
	}
	if sess.Speaking() {
		t.Fatalf("speaking must clear after error")
	}
}

func TestRelay_CancellationIsNotAnError(t *testing.T) {
	sess, tp := relaySession(t)
	chunks, errs, st, _ := manualStream()

	done := make(chan struct{})
	go func() {
		sess.relay(nil, st)
		close(done)
	}()
	errs <- context.Canceled
	close(chunks)
	close(errs)
	<-done

	if n := len(tp.markNames()); n != 0 {
		t.Fatalf("cancelled stream must not emit a marker, got %d", n)
	}
}

func TestRelay_StaleTokenStopsStreamImmediately(t *testing.T) {
	sess, _ := relaySession(t)

	sess.mu.Lock()
	stale := sess.mintTurnLocked()
	sess.mintTurnLocked()
	sess.mu.Unlock()

	chunks, errs, st, stopped := manualStream()
	close(chunks)
	close(errs)
	sess.relay(stale, st)

	if atomic.LoadInt32(stopped) != 1 {
		t.Fatalf("relay with a superseded token must destroy the stream")
	}
	if sess.Speaking() {
		t.Fatalf("superseded relay must not take over playback")
	}
}
