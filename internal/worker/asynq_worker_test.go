package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/padaria-next/internal/config"
	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/queue"
	"github.com/padaria-next/internal/service"

	"github.com/hibiken/asynq"
)

type fakeInventory struct {
	calls [][]uint
	low   []service.BalanceView
	err   error
}

func (f *fakeInventory) LowStock(_ context.Context, productIDs []uint) ([]service.BalanceView, error) {
	f.calls = append(f.calls, productIDs)
	return f.low, f.err
}

type fakeBatches struct {
	payloads []queue.DeliveryBatchConfirmPayload
	result   *service.BatchResult
	err      error
}

func (f *fakeBatches) HandleBatchTask(_ context.Context, payload queue.DeliveryBatchConfirmPayload) (*service.BatchResult, error) {
	f.payloads = append(f.payloads, payload)
	return f.result, f.err
}

func TestHandleDeliveryConfirmedChecksDeliveredProducts(t *testing.T) {
	inventory := &fakeInventory{low: []service.BalanceView{{ProductID: 2, ProductName: "Pão B", Balance: 1, LowStock: true}}}
	consumer := &Consumer{inventory: inventory}
	task, err := queue.NewDeliveryConfirmedTask(queue.DeliveryConfirmedPayload{OrderID: 7, ExecutionToken: "tok", ProductIDs: []uint{1, 2}})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}

	if err := consumer.handleDeliveryConfirmed(t.Context(), task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(inventory.calls) != 1 || len(inventory.calls[0]) != 2 {
		t.Fatalf("expected one low stock check for 2 products, got %+v", inventory.calls)
	}
}

func TestHandleDeliveryConfirmedSkipsEmptyPayload(t *testing.T) {
	inventory := &fakeInventory{}
	consumer := &Consumer{inventory: inventory}
	task, err := queue.NewDeliveryConfirmedTask(queue.DeliveryConfirmedPayload{OrderID: 7})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleDeliveryConfirmed(t.Context(), task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(inventory.calls) != 0 {
		t.Fatalf("expected no low stock check, got %d", len(inventory.calls))
	}
	if err := consumer.handleDeliveryConfirmed(t.Context(), asynq.NewTask(queue.TaskDeliveryConfirmed, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestHandleDeliveryBatchConfirm(t *testing.T) {
	payload := queue.DeliveryBatchConfirmPayload{
		BatchID:  "batch-1",
		OrderIDs: []uint{1, 2},
		Tokens:   map[uint]string{1: "tok-1", 2: "tok-2"},
	}
	task, err := queue.NewDeliveryBatchConfirmTask(payload)
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}

	cases := []struct {
		name    string
		result  *service.BatchResult
		err     error
		wantErr bool
	}{
		{name: "success", result: &service.BatchResult{Status: constants.BatchStatusSuccess}},
		{name: "partial", result: &service.BatchResult{Status: constants.BatchStatusPartial, SucceededCount: 1}},
		{name: "shortage is not retried", err: service.ErrBatchShortage},
		{name: "resolve failure is not retried", err: service.ErrBatchResolveFailed},
		{name: "all failed is retried", err: service.ErrBatchAllFailed, wantErr: true},
		{name: "infrastructure error is retried", err: errors.New("db down"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batches := &fakeBatches{result: tc.result, err: tc.err}
			consumer := &Consumer{batches: batches}
			err := consumer.handleDeliveryBatchConfirm(t.Context(), task)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(batches.payloads) != 1 || batches.payloads[0].Tokens[2] != "tok-2" {
				t.Fatalf("payload not forwarded: %+v", batches.payloads)
			}
		})
	}
}

func TestHandleStockLowCheckSweepsAllProducts(t *testing.T) {
	inventory := &fakeInventory{}
	consumer := &Consumer{inventory: inventory}

	if err := consumer.handleStockLowCheck(t.Context(), queue.NewStockLowCheckTask()); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(inventory.calls) != 1 || inventory.calls[0] != nil {
		t.Fatalf("expected a full sweep, got %+v", inventory.calls)
	}

	inventory.err = errors.New("db down")
	if err := consumer.handleStockLowCheck(t.Context(), queue.NewStockLowCheckTask()); err == nil {
		t.Fatalf("expected sweep error")
	}
}

func TestNewServiceRequiresEnabledQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, "", &Consumer{}); err == nil {
		t.Fatalf("expected error for disabled queue")
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, "", nil); err == nil {
		t.Fatalf("expected error for nil consumer")
	}
}
