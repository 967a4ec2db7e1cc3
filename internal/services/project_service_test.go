package services

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/testutil"
	"github.com/yukikurage/workforce-management-api/internal/utils"
)

var _ = Describe("ProjectService", func() {
	var (
		ctx      context.Context
		service  *ProjectService
		owner    *models.User
		rival    *models.User
		alice    *models.User
		bob      *models.User
		project  *models.Project
		start    time.Time
		earliest time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		db := testutil.NewDB(GinkgoT())
		service = NewProjectService(repository.NewStore(db))

		owner = testutil.CreateManager(GinkgoT(), db, "owner")
		rival = testutil.CreateManager(GinkgoT(), db, "rival")
		alice = testutil.CreateWorker(GinkgoT(), db, "alice")
		bob = testutil.CreateWorker(GinkgoT(), db, "bob")

		start = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		earliest = start.AddDate(0, 0, -1)

		var err error
		project, err = service.CreateProject(ctx, CreateProjectInput{
			Name:            "  Warehouse  ",
			Budget:          1500,
			StartDate:       &start,
			WorkerUsernames: []string{"alice"},
			CreatedByID:     owner.ID,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("CreateProject", func() {
		It("defaults the status and trims the name", func() {
			Expect(project.Name).To(Equal("Warehouse"))
			Expect(project.Status).To(Equal(models.ProjectStatusActive))
			Expect(project.Workers).To(HaveLen(1))
			Expect(project.Workers[0].ID).To(Equal(alice.ID))
		})

		It("validates the input", func() {
			_, err := service.CreateProject(ctx, CreateProjectInput{Name: " ", CreatedByID: owner.ID})
			Expect(err).To(MatchError(ErrProjectNameRequired))

			_, err = service.CreateProject(ctx, CreateProjectInput{Name: "Budget", Budget: -1, CreatedByID: owner.ID})
			Expect(err).To(MatchError(ErrNegativeBudget))

			_, err = service.CreateProject(ctx, CreateProjectInput{
				Name:        "Backwards",
				StartDate:   &start,
				EndDate:     &earliest,
				CreatedByID: owner.ID,
			})
			Expect(err).To(MatchError(ErrInvalidProjectDates))

			_, err = service.CreateProject(ctx, CreateProjectInput{Name: "Paused", Status: "paused", CreatedByID: owner.ID})
			Expect(err).To(MatchError(ErrInvalidProjectStatus))

			_, err = service.CreateProject(ctx, CreateProjectInput{Name: "Ghosts", WorkerUsernames: []string{"ghost"}, CreatedByID: owner.ID})
			Expect(err).To(MatchError(ErrUnknownUsers))
		})

		It("accepts an end date equal to the start date", func() {
			_, err := service.CreateProject(ctx, CreateProjectInput{
				Name:        "One day",
				StartDate:   &start,
				EndDate:     &start,
				CreatedByID: owner.ID,
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("visibility", func() {
		It("lists only the viewer's projects", func() {
			for viewer, want := range map[*models.User]int64{owner: 1, rival: 0, alice: 1, bob: 0} {
				projects, total, err := service.ListProjects(ctx, viewer, nil, utils.PaginationParams{})
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(Equal(want), viewer.Username)
				Expect(projects).To(HaveLen(int(want)), viewer.Username)
			}
		})

		It("hides projects from outsiders", func() {
			_, err := service.GetProject(ctx, alice, project.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GetProject(ctx, bob, project.ID)
			Expect(err).To(MatchError(ErrProjectNotFound))

			_, err = service.GetProject(ctx, rival, project.ID)
			Expect(err).To(MatchError(ErrProjectNotFound))
		})

		It("filters by status", func() {
			onHold := models.ProjectStatusOnHold
			projects, _, err := service.ListProjects(ctx, owner, &onHold, utils.PaginationParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(projects).To(BeEmpty())

			bad := models.ProjectStatus("archived")
			_, _, err = service.ListProjects(ctx, owner, &bad, utils.PaginationParams{})
			Expect(err).To(MatchError(ErrInvalidProjectStatus))
		})
	})

	Describe("UpdateProject", func() {
		It("only lets the creator change the project", func() {
			name := "Taken over"
			_, err := service.UpdateProject(ctx, rival.ID, project.ID, UpdateProjectInput{Name: &name})
			Expect(err).To(MatchError(ErrNotProjectOwner))

			Expect(service.DeleteProject(ctx, rival.ID, project.ID)).To(MatchError(ErrNotProjectOwner))
		})

		It("checks dates against the stored start date", func() {
			_, err := service.UpdateProject(ctx, owner.ID, project.ID, UpdateProjectInput{EndDate: &earliest})
			Expect(err).To(MatchError(ErrInvalidProjectDates))

			negative := -10.0
			_, err = service.UpdateProject(ctx, owner.ID, project.ID, UpdateProjectInput{Budget: &negative})
			Expect(err).To(MatchError(ErrNegativeBudget))
		})

		It("replaces the workers", func() {
			ids := []uint64{bob.ID}
			status := models.ProjectStatusOnHold
			updated, err := service.UpdateProject(ctx, owner.ID, project.ID, UpdateProjectInput{WorkerIDs: &ids, Status: &status})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(models.ProjectStatusOnHold))
			Expect(updated.Workers).To(HaveLen(1))
			Expect(updated.Workers[0].ID).To(Equal(bob.ID))

			_, err = service.GetProject(ctx, alice, project.ID)
			Expect(err).To(MatchError(ErrProjectNotFound))
			_, err = service.GetProject(ctx, bob, project.ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("DeleteProject", func() {
		It("removes the project for its creator", func() {
			Expect(service.DeleteProject(ctx, owner.ID, project.ID)).To(Succeed())

			_, err := service.GetProject(ctx, owner, project.ID)
			Expect(err).To(MatchError(ErrProjectNotFound))

			Expect(service.DeleteProject(ctx, owner.ID, project.ID)).To(MatchError(ErrProjectNotFound))
		})
	})
})
