// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPricing is returned for an unrecognized pricing mode. An
	// unknown mode is a misconfiguration, never a silent default.
	ErrUnknownPricing = errors.New("unknown pricing mode")
	// ErrNoWinner is returned when pricing is asked for a winnerless
	// outcome.
	ErrNoWinner = errors.New("no winner to price")
)

// Pricer converts an auction outcome into the CPM price charged to the
// winner. Implementations are pure functions of the outcome and floor.
type Pricer interface {
	Price(out Outcome, floorCPM float64) (float64, error)
}

// FirstPrice charges the winner its own effective bid.
type FirstPrice struct{}

func (FirstPrice) Price(out Outcome, floorCPM float64) (float64, error) {
	if out.Winner == nil {
		return 0, ErrNoWinner
	}
	return out.Winner.EffectiveBidCPM, nil
}

// SecondPrice charges the minimum bid that would still have won: the
// runner-up score converted back through the winner's predicted click rate
// and quality, clamped to [floor, winner bid]. With no runner-up the floor
// clears.
type SecondPrice struct{}

func (SecondPrice) Price(out Outcome, floorCPM float64) (float64, error) {
	if out.Winner == nil {
		return 0, ErrNoWinner
	}
	w := out.Winner
	price := floorCPM
	if out.SecondBestScore > 0 && w.PredictedClickRate > 0 && w.Advertiser.Quality > 0 {
		price = out.SecondBestScore / (w.PredictedClickRate * w.Advertiser.Quality)
	}
	if price < floorCPM {
		price = floorCPM
	}
	if price > w.EffectiveBidCPM {
		price = w.EffectiveBidCPM
	}
	return price, nil
}

// NewPricer resolves a pricing mode string to its strategy.
func NewPricer(mode string) (Pricer, error) {
	switch mode {
	case "first_price":
		return FirstPrice{}, nil
	case "second_price":
		return SecondPrice{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPricing, mode)
	}
}
