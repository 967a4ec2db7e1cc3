package services

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/testutil"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"gorm.io/gorm"
)

var _ = Describe("RewardService", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		points  *PointsService
		rewards *RewardService
		manager *models.User
		alice   *models.User
		bob     *models.User
	)

	fund := func(user *models.User, amount int64) {
		_, err := points.AwardPoints(ctx, AwardInput{UserID: user.ID, Points: amount})
		Expect(err).NotTo(HaveOccurred())
	}

	balanceOf := func(user *models.User) *models.UserPoints {
		balance, err := points.Balance(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		return balance
	}

	createReward := func(input CreateRewardInput) *models.Reward {
		input.CreatedByID = manager.ID
		reward, err := rewards.CreateReward(ctx, input)
		Expect(err).NotTo(HaveOccurred())
		return reward
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = testutil.NewDB(GinkgoT())
		store := repository.NewStore(db)
		points = NewPointsService(store)
		rewards = NewRewardService(store, nil)

		manager = testutil.CreateManager(GinkgoT(), db, "manager")
		alice = testutil.CreateWorker(GinkgoT(), db, "alice")
		bob = testutil.CreateWorker(GinkgoT(), db, "bob")
	})

	Describe("CreateReward", func() {
		It("validates the cost and type", func() {
			_, err := rewards.CreateReward(ctx, CreateRewardInput{Name: "Free", PointCost: 0, CreatedByID: manager.ID})
			Expect(err).To(MatchError(ErrInvalidPointCost))

			_, err = rewards.CreateReward(ctx, CreateRewardInput{Name: "Car", PointCost: 10, RewardType: "vehicle", CreatedByID: manager.ID})
			Expect(err).To(MatchError(ErrInvalidRewardType))

			_, err = rewards.CreateReward(ctx, CreateRewardInput{Name: " ", PointCost: 10, CreatedByID: manager.ID})
			Expect(err).To(MatchError(ErrRewardNameRequired))
		})

		It("rejects unknown eligible users", func() {
			_, err := rewards.CreateReward(ctx, CreateRewardInput{
				Name:              "Lunch",
				PointCost:         10,
				EligibleUsernames: []string{"ghost"},
				CreatedByID:       manager.ID,
			})
			Expect(err).To(MatchError(ErrUnknownUsers))
		})

		It("defaults to active and type other", func() {
			reward := createReward(CreateRewardInput{Name: "Mug", PointCost: 5})
			Expect(reward.IsActive).To(BeTrue())
			Expect(reward.RewardType).To(Equal(models.RewardTypeOther))
		})
	})

	Describe("RedeemReward", func() {
		It("debits exactly the cost and records the redemption", func() {
			cash := 25.0
			createReward(CreateRewardInput{Name: "Gift Card", PointCost: 30, RewardType: models.RewardTypeBonus, CashValue: &cash})
			fund(alice, 50)

			result, err := rewards.RedeemReward(ctx, alice.ID, "gift card", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(HavePrefix("Successfully redeemed Gift Card."))
			Expect(result.Redemption.Status).To(Equal(models.RedemptionPending))
			Expect(result.Redemption.PointsUsed).To(Equal(int64(30)))
			Expect(result.Redemption.FulfillmentNote).To(ContainSubstring("25.00"))

			balance := balanceOf(alice)
			Expect(balance.AvailablePoints).To(Equal(int64(20)))
			Expect(balance.RedeemedPoints).To(Equal(int64(30)))
			Expect(balance.TotalPoints).To(Equal(int64(50)))
			Expect(ledgerSum(db, alice.ID)).To(Equal(balance.AvailablePoints))
		})

		It("refuses when the balance is short and changes nothing", func() {
			createReward(CreateRewardInput{Name: "Day Off", PointCost: 100, RewardType: models.RewardTypeTimeOff})
			fund(alice, 99)

			_, err := rewards.RedeemReward(ctx, alice.ID, "Day Off", nil)
			Expect(err).To(MatchError(ErrInsufficientPoints))

			Expect(balanceOf(alice).AvailablePoints).To(Equal(int64(99)))
			mine, total, err := rewards.Redemptions(ctx, alice.ID, utils.PaginationParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeZero())
			Expect(mine).To(BeEmpty())
		})

		It("refuses users who never earned points", func() {
			createReward(CreateRewardInput{Name: "Sticker", PointCost: 1})

			_, err := rewards.RedeemReward(ctx, bob.ID, "Sticker", nil)
			Expect(err).To(MatchError(ErrInsufficientPoints))
		})

		It("restricts rewards with eligible users", func() {
			createReward(CreateRewardInput{Name: "Parking Spot", PointCost: 10, EligibleUsernames: []string{"alice"}})
			fund(alice, 20)
			fund(bob, 20)

			_, err := rewards.RedeemReward(ctx, bob.ID, "Parking Spot", nil)
			Expect(err).To(MatchError(ErrNotEligible))

			_, err = rewards.RedeemReward(ctx, alice.ID, "Parking Spot", nil)
			Expect(err).NotTo(HaveOccurred())

			available, err := rewards.AvailableRewards(ctx, bob.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(available).To(BeEmpty())

			available, err = rewards.AvailableRewards(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(available).To(HaveLen(1))
		})

		It("ignores inactive rewards", func() {
			inactive := false
			createReward(CreateRewardInput{Name: "Retired", PointCost: 1, IsActive: &inactive})
			fund(alice, 5)

			_, err := rewards.RedeemReward(ctx, alice.ID, "Retired", nil)
			Expect(err).To(MatchError(ErrRewardNotFound))
		})

		It("rolls back when fulfillment fails", func() {
			failing := Fulfillment{
				models.RewardTypeOther: FulfillerFunc(func(context.Context, *models.Reward, *models.RewardRedemption) (string, error) {
					return "", errors.New("payroll offline")
				}),
			}
			rewards = NewRewardService(repository.NewStore(db), failing)
			createReward(CreateRewardInput{Name: "Hoodie", PointCost: 10})
			fund(alice, 10)

			_, err := rewards.RedeemReward(ctx, alice.ID, "Hoodie", nil)
			Expect(err).To(HaveOccurred())
			Expect(balanceOf(alice).AvailablePoints).To(Equal(int64(10)))
			Expect(ledgerSum(db, alice.ID)).To(Equal(int64(10)))
		})
	})

	Describe("ProcessRedemption", func() {
		var redemptionID uint64

		BeforeEach(func() {
			createReward(CreateRewardInput{Name: "Lunch", PointCost: 15})
			fund(alice, 40)

			result, err := rewards.RedeemReward(ctx, alice.ID, "Lunch", nil)
			Expect(err).NotTo(HaveOccurred())
			redemptionID = result.Redemption.ID
		})

		It("refunds rejected redemptions through an adjust transaction", func() {
			processed, err := rewards.ProcessRedemption(ctx, manager.ID, redemptionID, ProcessRedemptionInput{
				Status:     models.RedemptionRejected,
				AdminNotes: "Out of budget",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(processed.Status).To(Equal(models.RedemptionRejected))
			Expect(processed.ProcessedAt).NotTo(BeNil())

			balance := balanceOf(alice)
			Expect(balance.AvailablePoints).To(Equal(int64(40)))
			Expect(balance.RedeemedPoints).To(BeZero())
			Expect(ledgerSum(db, alice.ID)).To(Equal(int64(40)))

			adjust := models.TransactionAdjust
			txs, _, err := points.Transactions(ctx, repository.TransactionFilter{UserID: &alice.ID, Type: &adjust})
			Expect(err).NotTo(HaveOccurred())
			Expect(txs).To(HaveLen(1))
			Expect(txs[0].Points).To(Equal(int64(15)))
		})

		It("treats rejected and fulfilled as final", func() {
			_, err := rewards.ProcessRedemption(ctx, manager.ID, redemptionID, ProcessRedemptionInput{Status: models.RedemptionApproved})
			Expect(err).NotTo(HaveOccurred())
			_, err = rewards.ProcessRedemption(ctx, manager.ID, redemptionID, ProcessRedemptionInput{Status: models.RedemptionFulfilled})
			Expect(err).NotTo(HaveOccurred())

			_, err = rewards.ProcessRedemption(ctx, manager.ID, redemptionID, ProcessRedemptionInput{Status: models.RedemptionRejected})
			Expect(err).To(MatchError(ErrRedemptionAlreadyFinished))
			Expect(balanceOf(alice).AvailablePoints).To(Equal(int64(25)))
		})

		It("rejects pending as a decision", func() {
			_, err := rewards.ProcessRedemption(ctx, manager.ID, redemptionID, ProcessRedemptionInput{Status: models.RedemptionPending})
			Expect(err).To(MatchError(ErrInvalidRedemptionStatus))
		})

		It("reports unknown redemptions", func() {
			_, err := rewards.ProcessRedemption(ctx, manager.ID, 9999, ProcessRedemptionInput{Status: models.RedemptionApproved})
			Expect(err).To(MatchError(ErrRedemptionNotFound))
		})

		It("lists pending redemptions for the reward's creator", func() {
			pending := models.RedemptionPending
			list, total, err := rewards.ManagerRedemptions(ctx, manager.ID, &pending, utils.PaginationParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(list[0].ID).To(Equal(redemptionID))
		})
	})
})
