package health

import (
    "fmt"
    "testing"
    "time"

    "CoreBridge/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
    t.Helper()
    lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
    if err != nil {
        t.Fatalf("logger: %v", err)
    }
    return lgr
}

func TestRegisterStartsUnhealthy(t *testing.T) {
    c := NewChecker(time.Minute, testLogger(t))
    c.Register("db", func() error { return nil })

    status := c.Status()
    if status["db"].Healthy {
        t.Fatalf("probe must start unhealthy before first evaluation")
    }
}

func TestEvaluateAll(t *testing.T) {
    c := NewChecker(time.Minute, testLogger(t))
    c.Register("ok", func() error { return nil })
    c.Register("bad", func() error { return fmt.Errorf("connection refused") })
    c.Register("panicky", func() error { panic("boom") })

    c.EvaluateAll()

    status := c.Status()
    if !status["ok"].Healthy {
        t.Fatalf("expected ok probe healthy")
    }
    if status["bad"].Healthy || status["bad"].Info["detail"] != "connection refused" {
        t.Fatalf("expected failure detail captured, got %+v", status["bad"])
    }
    if status["panicky"].Healthy {
        t.Fatalf("panicking probe must be unhealthy")
    }
    if status["ok"].LastChecked.IsZero() {
        t.Fatalf("expected last_checked set")
    }
}

func TestUnregisterRemovesStatus(t *testing.T) {
    c := NewChecker(time.Minute, testLogger(t))
    c.Register("tmp", func() error { return nil })
    c.EvaluateAll()
    c.Unregister("tmp")

    if _, ok := c.Status()["tmp"]; ok {
        t.Fatalf("unregistered probe must not appear in status")
    }
}

func TestStatusSnapshotIsCopy(t *testing.T) {
    c := NewChecker(time.Minute, testLogger(t))
    c.Register("db", func() error { return nil })
    c.EvaluateAll()

    snap := c.Status()
    snap["db"].Info["detail"] = "mutated"

    if c.Status()["db"].Info["detail"] == "mutated" {
        t.Fatalf("snapshot must not share state with the checker")
    }
}

func TestStartStop(t *testing.T) {
    c := NewChecker(10*time.Millisecond, testLogger(t))
    c.Register("db", func() error { return nil })

    c.Start()
    time.Sleep(30 * time.Millisecond)
    c.Stop()

    if !c.Status()["db"].Healthy {
        t.Fatalf("expected probe evaluated by background loop")
    }
    // stopping twice must not panic
    c.Stop()
}
