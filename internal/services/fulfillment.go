package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/workforce-management-api/internal/models"
)

// Fulfiller starts delivery of a redeemed reward and returns a note for the record.
type Fulfiller interface {
	Fulfill(ctx context.Context, reward *models.Reward, redemption *models.RewardRedemption) (string, error)
}

// FulfillerFunc adapts a function to Fulfiller
type FulfillerFunc func(ctx context.Context, reward *models.Reward, redemption *models.RewardRedemption) (string, error)

func (f FulfillerFunc) Fulfill(ctx context.Context, reward *models.Reward, redemption *models.RewardRedemption) (string, error) {
	return f(ctx, reward, redemption)
}

// Fulfillment maps reward types to their fulfiller
type Fulfillment map[models.RewardType]Fulfiller

// DefaultFulfillment records what would be delivered without calling payroll or HR systems.
func DefaultFulfillment() Fulfillment {
	return Fulfillment{
		models.RewardTypeBonus:   FulfillerFunc(fulfillBonus),
		models.RewardTypeTimeOff: FulfillerFunc(fulfillTimeOff),
		models.RewardTypeOther:   FulfillerFunc(fulfillManual),
	}
}

func (f Fulfillment) fulfill(ctx context.Context, reward *models.Reward, redemption *models.RewardRedemption) (string, error) {
	fulfiller, ok := f[reward.RewardType]
	if !ok {
		return fulfillManual(ctx, reward, redemption)
	}
	return fulfiller.Fulfill(ctx, reward, redemption)
}

func fulfillBonus(_ context.Context, reward *models.Reward, _ *models.RewardRedemption) (string, error) {
	if reward.CashValue != nil {
		return fmt.Sprintf("Bonus of %.2f queued for payroll", *reward.CashValue), nil
	}
	return "Bonus queued for payroll", nil
}

func fulfillTimeOff(_ context.Context, reward *models.Reward, _ *models.RewardRedemption) (string, error) {
	if reward.DaysOff != nil {
		return fmt.Sprintf("%d day(s) of time off credited", *reward.DaysOff), nil
	}
	return "Time off credited", nil
}

func fulfillManual(_ context.Context, reward *models.Reward, _ *models.RewardRedemption) (string, error) {
	if reward.RedemptionInstructions != "" {
		return "Awaiting manual fulfillment: " + reward.RedemptionInstructions, nil
	}
	return "Awaiting manual fulfillment", nil
}
