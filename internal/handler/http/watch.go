package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/watch"
)

// StreamWithdrawalRequests streams the first admin page of withdrawal
// requests as server-sent events, re-read every interval. The stream
// ends when the client disconnects or the backing query fails.
func (wh *WithdrawalHandler) StreamWithdrawalRequests(interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetch := func(ctx context.Context) (watch.Snapshot[models.WithdrawalRequest], error) {
			page, err := wh.svc.ListRequests(ctx, models.Cursor{})
			if err != nil {
				return watch.Snapshot[models.WithdrawalRequest]{}, err
			}
			return watch.Snapshot[models.WithdrawalRequest]{
				Records: page.Requests,
				Cursor:  page.Cursor,
				Pages:   page.Pages,
			}, nil
		}

		streamSnapshots(w, r, fetch, interval, func(snap watch.Snapshot[models.WithdrawalRequest]) any {
			resp := requestPageResponse{Pages: snap.Pages}
			for _, req := range snap.Records {
				resp.Requests = append(resp.Requests, toRequestResponse(req))
			}
			if !snap.Cursor.IsZero() {
				resp.CursorTime = snap.Cursor.Time.Format(time.RFC3339Nano)
				resp.CursorID = snap.Cursor.ID
			}
			return resp
		})
	}
}

// StreamWithdrawals streams the first admin page of confirmed ledger
// entries as server-sent events
func (wh *WithdrawalHandler) StreamWithdrawals(interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetch := func(ctx context.Context) (watch.Snapshot[models.Withdrawal], error) {
			page, err := wh.svc.ListWithdrawals(ctx, models.Cursor{})
			if err != nil {
				return watch.Snapshot[models.Withdrawal]{}, err
			}
			return watch.Snapshot[models.Withdrawal]{
				Records: page.Withdrawals,
				Cursor:  page.Cursor,
				Pages:   page.Pages,
			}, nil
		}

		streamSnapshots(w, r, fetch, interval, func(snap watch.Snapshot[models.Withdrawal]) any {
			resp := withdrawalPageResponse{Pages: snap.Pages}
			for _, wd := range snap.Records {
				resp.Withdrawals = append(resp.Withdrawals, toWithdrawalResponse(wd))
			}
			if !snap.Cursor.IsZero() {
				resp.CursorTime = snap.Cursor.Time.Format(time.RFC3339Nano)
				resp.CursorID = snap.Cursor.ID
			}
			return resp
		})
	}
}

// streamSnapshots runs a watcher for the lifetime of the request and
// writes every snapshot as one SSE data event. Channel sends from the
// watcher goroutine are non-blocking so a slow client only drops
// intermediate snapshots, it never wedges the watcher.
func streamSnapshots[T any](w http.ResponseWriter, r *http.Request, fetch watch.FetchFunc[T], interval time.Duration, render func(watch.Snapshot[T]) any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	snapshots := make(chan watch.Snapshot[T], 1)
	errs := make(chan error, 1)

	wt := watch.New(fetch,
		func(s watch.Snapshot[T]) {
			select {
			case snapshots <- s:
			default:
			}
		},
		func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
		interval)

	ctx := r.Context()
	wt.Start(ctx)
	defer wt.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-errs:
			return
		case snap := <-snapshots:
			data, err := json.Marshal(render(snap))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
