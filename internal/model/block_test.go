package model

import (
    "testing"
    "time"
)

func TestUserBlockCovers(t *testing.T) {
    now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
    past := now.Add(-24 * time.Hour)
    future := now.Add(24 * time.Hour)

    t.Run("indefinite block covers", func(t *testing.T) {
        b := UserBlock{BlockedAt: past}
        if !b.Covers(now) {
            t.Fatal("indefinite block should cover the present")
        }
    })

    t.Run("temporal block still in force", func(t *testing.T) {
        b := UserBlock{BlockedAt: past, UnblockedAt: &future}
        if !b.Covers(now) {
            t.Fatal("block ending in the future should still cover")
        }
    })

    t.Run("lapsed block", func(t *testing.T) {
        end := now.Add(-time.Hour)
        b := UserBlock{BlockedAt: past, UnblockedAt: &end}
        if b.Covers(now) {
            t.Fatal("block that already ended should not cover")
        }
    })

    t.Run("not yet started", func(t *testing.T) {
        b := UserBlock{BlockedAt: future}
        if b.Covers(now) {
            t.Fatal("block starting in the future should not cover")
        }
    })
}
