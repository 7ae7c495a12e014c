package billing_test

import (
	"context"
	"errors"
	"fmt"

	"fieldservice-backend/billing"
)

// fakeStore is an in-memory DocumentStore/PaymentStore for engine tests.
type fakeStore struct {
	docs       map[string]billing.DocumentRecord
	payments   map[string][]billing.Payment
	nextID     int
	failInsert bool
	failUpdate bool
	inserts    int
	updates    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     make(map[string]billing.DocumentRecord),
		payments: make(map[string][]billing.Payment),
	}
}

func key(kind billing.Kind, id string) string {
	return string(kind) + "/" + id
}

func (s *fakeStore) Insert(_ context.Context, kind billing.Kind, rec billing.DocumentRecord) (string, error) {
	if s.failInsert {
		return "", errors.New("store unreachable")
	}
	s.inserts++
	s.nextID++
	id := fmt.Sprintf("doc-%d", s.nextID)
	rec.ID = id
	s.docs[key(kind, id)] = rec
	return id, nil
}

func (s *fakeStore) Update(_ context.Context, kind billing.Kind, id string, rec billing.DocumentRecord) error {
	if s.failUpdate {
		return errors.New("write rejected")
	}
	if _, ok := s.docs[key(kind, id)]; !ok {
		return errors.New("not found")
	}
	s.updates++
	rec.ID = id
	s.docs[key(kind, id)] = rec
	return nil
}

func (s *fakeStore) Fetch(_ context.Context, kind billing.Kind, id string) (billing.DocumentRecord, error) {
	rec, ok := s.docs[key(kind, id)]
	if !ok {
		return billing.DocumentRecord{}, errors.New("not found")
	}
	return rec, nil
}

func (s *fakeStore) InsertPayment(_ context.Context, invoiceID string, p billing.Payment) (string, error) {
	if s.failInsert {
		return "", errors.New("store unreachable")
	}
	id := fmt.Sprintf("pay-%d", len(s.payments[invoiceID])+1)
	p.ID = id
	s.payments[invoiceID] = append(s.payments[invoiceID], p)
	return id, nil
}

// fakeSequencer counts per kind and can be switched offline.
type fakeSequencer struct {
	counters map[billing.Kind]int64
	offline  bool
}

func newFakeSequencer() *fakeSequencer {
	return &fakeSequencer{counters: make(map[billing.Kind]int64)}
}

func (s *fakeSequencer) Next(_ context.Context, kind billing.Kind) (int64, error) {
	if s.offline {
		return 0, errors.New("sequence provider offline")
	}
	s.counters[kind]++
	return s.counters[kind], nil
}

// fakeDispatcher records sends and can be made to fail.
type fakeDispatcher struct {
	fail bool
	sent []string
}

func (d *fakeDispatcher) Send(_ context.Context, kind billing.Kind, id, recipient string) error {
	if d.fail {
		return errors.New("dispatch failed")
	}
	d.sent = append(d.sent, fmt.Sprintf("%s/%s->%s", kind, id, recipient))
	return nil
}
