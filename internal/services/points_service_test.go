package services

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/testutil"
	"gorm.io/gorm"
)

// ledgerSum adds up every transaction of a user
func ledgerSum(db *gorm.DB, userID uint64) int64 {
	var sum int64
	Expect(db.Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error).To(Succeed())
	return sum
}

var _ = Describe("PointsService", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *PointsService
		worker  *models.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = testutil.NewDB(GinkgoT())
		service = NewPointsService(repository.NewStore(db))
		worker = testutil.CreateWorker(GinkgoT(), db, "worker")

		for _, b := range []CreateBadgeInput{
			{Name: "Bronze", PointsRequired: 10},
			{Name: "Silver", PointsRequired: 25},
		} {
			_, err := service.CreateBadge(ctx, b)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	Describe("AwardPoints", func() {
		It("credits the balance and records an earn transaction", func() {
			result, err := service.AwardPoints(ctx, AwardInput{UserID: worker.ID, Points: 7, Description: "Great shift"})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Balance.TotalPoints).To(Equal(int64(7)))
			Expect(result.Balance.AvailablePoints).To(Equal(int64(7)))
			Expect(result.Transaction.TransactionType).To(Equal(models.TransactionEarn))
			Expect(result.NewBadges).To(BeEmpty())
			Expect(ledgerSum(db, worker.ID)).To(Equal(result.Balance.AvailablePoints))
		})

		It("finds the recipient by username", func() {
			result, err := service.AwardPoints(ctx, AwardInput{Username: "worker", Points: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Balance.UserID).To(Equal(worker.ID))
		})

		It("rejects non-positive amounts", func() {
			_, err := service.AwardPoints(ctx, AwardInput{UserID: worker.ID, Points: 0})
			Expect(err).To(MatchError(ErrInvalidPoints))
		})

		It("rejects unknown users", func() {
			_, err := service.AwardPoints(ctx, AwardInput{Username: "ghost", Points: 5})
			Expect(err).To(MatchError(ErrUserNotFound))
		})

		It("requires a recipient", func() {
			_, err := service.AwardPoints(ctx, AwardInput{Points: 5})
			Expect(err).To(MatchError(ErrRecipientRequired))
		})
	})

	Describe("badges", func() {
		It("awards each badge once as thresholds are crossed", func() {
			result, err := service.AwardPoints(ctx, AwardInput{UserID: worker.ID, Points: 12})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NewBadges).To(HaveLen(1))
			Expect(result.NewBadges[0].Name).To(Equal("Bronze"))

			result, err = service.AwardPoints(ctx, AwardInput{UserID: worker.ID, Points: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NewBadges).To(BeEmpty())

			result, err = service.AwardPoints(ctx, AwardInput{UserID: worker.ID, Points: 20})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NewBadges).To(HaveLen(1))
			Expect(result.NewBadges[0].Name).To(Equal("Silver"))

			unlocked, err := service.CheckBadges(ctx, worker.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(BeEmpty())

			earned, err := service.UserBadges(ctx, worker.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(earned).To(HaveLen(2))
		})

		It("picks up badges created after the points were earned", func() {
			_, err := service.AwardPoints(ctx, AwardInput{UserID: worker.ID, Points: 30})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateBadge(ctx, CreateBadgeInput{Name: "Starter", PointsRequired: 1})
			Expect(err).NotTo(HaveOccurred())

			unlocked, err := service.CheckBadges(ctx, worker.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(HaveLen(1))
			Expect(unlocked[0].Name).To(Equal("Starter"))
		})

		It("unlocks nothing above zero for users without a balance", func() {
			unlocked, err := service.CheckBadges(ctx, worker.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(BeEmpty())
		})

		It("unlocks zero-point badges for users who never earned", func() {
			_, err := service.CreateBadge(ctx, CreateBadgeInput{Name: "Welcome", PointsRequired: 0})
			Expect(err).NotTo(HaveOccurred())

			unlocked, err := service.CheckBadges(ctx, worker.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(HaveLen(1))
			Expect(unlocked[0].Name).To(Equal("Welcome"))

			unlocked, err = service.CheckBadges(ctx, worker.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(BeEmpty())
		})

		It("rejects duplicate badge names", func() {
			_, err := service.CreateBadge(ctx, CreateBadgeInput{Name: "Bronze", PointsRequired: 99})
			Expect(err).To(MatchError(ErrBadgeExists))
		})

		It("defaults the icon", func() {
			badge, err := service.CreateBadge(ctx, CreateBadgeInput{Name: "Gold", PointsRequired: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(badge.Icon).To(Equal("medal"))
		})
	})

	Describe("Balance", func() {
		It("reports zeros for users who never earned", func() {
			balance, err := service.Balance(ctx, worker.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(balance.UserID).To(Equal(worker.ID))
			Expect(balance.TotalPoints).To(BeZero())
		})
	})

	Describe("Transactions", func() {
		It("rejects unknown transaction types", func() {
			bad := models.TransactionType("gift")
			_, _, err := service.Transactions(ctx, repository.TransactionFilter{Type: &bad})
			Expect(err).To(MatchError(ErrInvalidTransactionType))
		})
	})
})
