package store

import (
	"sync"
	"testing"
	"time"
)

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := seedRepo(t, s, "p")

	job, err := s.EnqueueJob(repo.ID, JobParse, map[string]any{"rel_path": "a.py"}, 3)
	if err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}
	if job.Status != JobPending {
		t.Errorf("status = %s, want pending", job.Status)
	}

	claimed, err := s.ClaimJob("worker-1", time.Minute)
	if err != nil {
		t.Fatalf("ClaimJob: %v", err)
	}
	if claimed == nil || claimed.ID != job.ID {
		t.Fatalf("claimed = %+v", claimed)
	}
	if claimed.Status != JobInProgress || claimed.WorkerID != "worker-1" || claimed.Attempts != 1 {
		t.Errorf("claimed job: %+v", claimed)
	}
	if claimed.Payload["rel_path"] != "a.py" {
		t.Errorf("payload = %v", claimed.Payload)
	}

	// Queue is empty while the lock is held.
	second, err := s.ClaimJob("worker-2", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Errorf("second claim should find nothing, got %+v", second)
	}

	if err := s.CompleteJob(claimed.ID); err != nil {
		t.Fatal(err)
	}
	done, _ := s.GetJob(claimed.ID)
	if done.Status != JobCompleted || done.CompletedAt == "" {
		t.Errorf("completed job: %+v", done)
	}
}

func TestJobRetryThenPermanentFailure(t *testing.T) {
	s := openTestStore(t)
	repo := seedRepo(t, s, "p")

	job, err := s.EnqueueJob(repo.ID, JobGenerateFlow, nil, 2)
	if err != nil {
		t.Fatal(err)
	}

	// First attempt fails: back to pending.
	claimed, _ := s.ClaimJob("w", time.Minute)
	if claimed == nil {
		t.Fatal("no claim")
	}
	failed, err := s.FailJob(claimed.ID, "collaborator timeout")
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != JobPending {
		t.Errorf("after first failure status = %s, want pending", failed.Status)
	}
	if failed.LastError != "collaborator timeout" {
		t.Errorf("last_error = %q", failed.LastError)
	}

	// Second attempt hits the ceiling: permanently failed.
	claimed, _ = s.ClaimJob("w", time.Minute)
	if claimed == nil {
		t.Fatal("no reclaim")
	}
	failed, err = s.FailJob(claimed.ID, "collaborator timeout")
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != JobFailed {
		t.Errorf("at ceiling status = %s, want failed", failed.Status)
	}

	if next, _ := s.ClaimJob("w", time.Minute); next != nil {
		t.Errorf("permanently failed job reclaimed: %+v", next)
	}
	_ = job
}

func TestStaleLockReclaim(t *testing.T) {
	s := openTestStore(t)
	repo := seedRepo(t, s, "p")

	if _, err := s.EnqueueJob(repo.ID, JobParse, nil, 5); err != nil {
		t.Fatal(err)
	}
	first, err := s.ClaimJob("crashed-worker", time.Minute)
	if err != nil || first == nil {
		t.Fatalf("claim: %v %v", first, err)
	}

	// Lock not yet stale.
	if j, _ := s.ClaimJob("w2", time.Minute); j != nil {
		t.Fatal("fresh lock should not be reclaimable")
	}
	// Zero timeout: every lock is stale.
	reclaimed, err := s.ClaimJob("w2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if reclaimed == nil || reclaimed.ID != first.ID || reclaimed.WorkerID != "w2" {
		t.Errorf("reclaim: %+v", reclaimed)
	}
}

func TestConcurrentClaimsExactlyOnce(t *testing.T) {
	s := openTestStore(t)
	repo := seedRepo(t, s, "p")

	const jobs = 20
	const workers = 4
	for i := 0; i < jobs; i++ {
		if _, err := s.EnqueueJob(repo.ID, JobParse, map[string]any{"n": i}, 3); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	claimedBy := map[int64]string{}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		workerID := "w" + string(rune('0'+w))
		go func() {
			defer wg.Done()
			for {
				job, err := s.ClaimJob(workerID, time.Minute)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				if prev, dup := claimedBy[job.ID]; dup {
					t.Errorf("job %d claimed twice: %s and %s", job.ID, prev, workerID)
				}
				claimedBy[job.ID] = workerID
				mu.Unlock()
				if err := s.CompleteJob(job.ID); err != nil {
					t.Errorf("complete: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if len(claimedBy) != jobs {
		t.Errorf("claimed %d jobs, want %d", len(claimedBy), jobs)
	}
	counts, err := s.CountJobsByStatus(repo.ID, JobParse)
	if err != nil {
		t.Fatal(err)
	}
	if counts[JobCompleted] != jobs || counts[JobPending] != 0 || counts[JobInProgress] != 0 {
		t.Errorf("final counts: %v", counts)
	}
}
