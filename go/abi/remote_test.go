// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package abi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestRegistry(t *testing.T, handler http.HandlerFunc) *RemoteRegistry {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	registry, err := NewRemoteRegistry(logrus.New(), server.URL, server.Client(), 16)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	registry.retryDelay = time.Millisecond
	return registry
}

func TestRemoteRegistry_ResolvesAndCaches(t *testing.T) {
	selector := SelectorOf("MissingFinalSemi(uint256)")
	var calls atomic.Int32
	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("function"); got != selector.String() {
			t.Errorf("unexpected selector in query %q", got)
		}
		fmt.Fprintf(w, `{"ok":true,"result":{"function":{"%s":[{"name":"MissingFinalSemi(uint256)","filtered":false}]}}}`, selector)
	})

	for i := 0; i < 3; i++ {
		got, err := registry.Lookup(context.Background(), selector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0] != "MissingFinalSemi(uint256)" {
			t.Errorf("unexpected candidates %v", got)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single request, got %d", got)
	}
}

func TestRemoteRegistry_RetriesServerErrors(t *testing.T) {
	selector := SelectorOf("Foo()")
	var calls atomic.Int32
	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"function":{}}}`)
	})

	got, err := registry.Lookup(context.Background(), selector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

func TestRemoteRegistry_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	if _, err := registry.Lookup(context.Background(), SelectorOf("Foo()")); err == nil {
		t.Errorf("expected an error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single request, got %d", got)
	}
}

func TestRemoteRegistry_GivesUpAfterBoundedRetries(t *testing.T) {
	var calls atomic.Int32
	registry := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := registry.Lookup(context.Background(), SelectorOf("Foo()")); err == nil {
		t.Errorf("expected an error")
	}
	if got, want := calls.Load(), int32(registry.maxRetries+1); got != want {
		t.Errorf("expected %d requests, got %d", want, got)
	}
}

func TestRemoteRegistry_FailuresAreLoggedWithComponent(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	registry, err := NewRemoteRegistry(log, server.URL, server.Client(), 16)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}

	if _, err := registry.Lookup(context.Background(), SelectorOf("Foo()")); err == nil {
		t.Fatalf("expected the lookup to fail")
	}
	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected the failure to be logged")
	}
	if got := entry.Data["component"]; got != "abi/registry" {
		t.Errorf("unexpected component %v", got)
	}
	if _, found := entry.Data["module"]; found {
		t.Errorf("unexpected module field in %v", entry.Data)
	}
}
