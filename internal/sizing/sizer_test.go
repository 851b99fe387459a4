package sizing

import (
	"testing"

	"titan-sniper/internal/domain"
)

func testConfig() Config {
	return Config{
		EntryPct:          0.10,
		MinEntryLamports:  1_000_000,
		SlippageBps:       2000,
		InitialStopPct:    0.25,
		ReboundStopPct:    0.025,
		PartialTakeProfit: 0.5,
	}
}

func TestSizePercentOfBalance(t *testing.T) {
	s := New(testConfig())

	cfg := s.Size(10_000_000_000, domain.StageInitialLaunch) // 10 SOL
	if cfg.EntrySizeLamports != 1_000_000_000 {
		t.Errorf("expected 1 SOL entry, got %d lamports", cfg.EntrySizeLamports)
	}
	if cfg.InitialStopPct != 0.25 {
		t.Errorf("expected initial stop 0.25, got %v", cfg.InitialStopPct)
	}
	if !cfg.TrailingEnabled {
		t.Error("trailing should be enabled")
	}
}

func TestSizeFloorsDustEntries(t *testing.T) {
	s := New(testConfig())

	// 0.005 SOL balance: 10% would be 0.0005 SOL, below the floor.
	cfg := s.Size(5_000_000, domain.StageInitialLaunch)
	if cfg.EntrySizeLamports != 1_000_000 {
		t.Errorf("expected floor 1000000, got %d", cfg.EntrySizeLamports)
	}
}

func TestSizeReboundStageUsesTighterStop(t *testing.T) {
	s := New(testConfig())

	cfg := s.Size(10_000_000_000, domain.StageReboundEntry)
	if cfg.InitialStopPct != 0.025 {
		t.Errorf("expected rebound stop 0.025, got %v", cfg.InitialStopPct)
	}
}

func TestSizeRederivesPerCall(t *testing.T) {
	s := New(testConfig())

	first := s.Size(10_000_000_000, domain.StageInitialLaunch)
	second := s.Size(20_000_000_000, domain.StageInitialLaunch)
	if first.EntrySizeLamports == second.EntrySizeLamports {
		t.Error("entry size must track the current balance")
	}
	if second.EntrySizeLamports != 2_000_000_000 {
		t.Errorf("expected 2 SOL entry, got %d", second.EntrySizeLamports)
	}
}

func TestEntrySizeSOLDisplay(t *testing.T) {
	cfg := domain.TradeConfiguration{EntrySizeLamports: 1_500_000_000}
	if cfg.EntrySizeSOL() != 1.5 {
		t.Errorf("expected 1.5 SOL display, got %v", cfg.EntrySizeSOL())
	}
}
