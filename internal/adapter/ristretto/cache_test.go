package ristretto_test

import (
	"testing"

	"github.com/Strob0t/seogov/internal/adapter/ristretto"
	"github.com/Strob0t/seogov/internal/port/cache/cachetest"
)

func TestCacheContract(t *testing.T) {
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	cachetest.Run(t, c)
}

func TestNewRejectsZeroCost(t *testing.T) {
	if _, err := ristretto.New(0); err == nil {
		t.Fatal("expected error for zero max cost")
	}
}
