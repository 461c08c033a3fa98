package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nhle/mailerbot/internal/model"
	"github.com/nhle/mailerbot/tests/testutil"
)

func TestRecordAndListSends(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.RecordSend(ctx, model.SendRecord{
			UserID:    "42",
			FromEmail: "a@gmail.com",
			ToEmail:   fmt.Sprintf("t%d@yahoo.com", i),
			Subject:   "Hi",
			OK:        i != 1,
			Detail:    "",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordSend %d: %v", i, err)
		}
	}

	recs, err := s.RecentSends(ctx, "42", 2)
	if err != nil {
		t.Fatalf("RecentSends: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ToEmail != "t2@yahoo.com" {
		t.Errorf("newest first: got %q", recs[0].ToEmail)
	}
	if recs[1].OK {
		t.Error("failed send recorded as ok")
	}
}

func TestRecentSendsScopedToUser(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestHistory(t)
	ctx := context.Background()

	err := s.RecordSend(ctx, model.SendRecord{
		UserID:    "42",
		FromEmail: "a@gmail.com",
		ToEmail:   "b@yahoo.com",
		Subject:   "Hi",
		OK:        true,
	})
	if err != nil {
		t.Fatalf("RecordSend: %v", err)
	}

	recs, err := s.RecentSends(ctx, "other", 10)
	if err != nil {
		t.Fatalf("RecentSends: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records for other user, want 0", len(recs))
	}
}
