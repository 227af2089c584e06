package optimization

import "testing"

func TestForProfile(t *testing.T) {
	for _, name := range []string{"", "default", "stress", "low"} {
		cfg, err := ForProfile(name)
		if err != nil {
			t.Fatalf("ForProfile(%q): %v", name, err)
		}
		if cfg.ClientSendBuffer <= 0 || cfg.MaxSessions <= 0 || cfg.MaxMessagesPerSecond <= 0 || cfg.SweepInterval <= 0 {
			t.Errorf("ForProfile(%q) has non-positive limits: %+v", name, cfg)
		}
	}

	if _, err := ForProfile("turbo"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestStressProfileIsLargerThanLow(t *testing.T) {
	stress, low := StressTestConfig(), LowResourceConfig()
	if stress.MaxSessions <= low.MaxSessions || stress.ClientSendBuffer <= low.ClientSendBuffer {
		t.Errorf("stress %+v should exceed low %+v", stress, low)
	}
}
