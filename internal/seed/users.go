package seed

import (
	"context"
	"fmt"

	"donkeymap/internal/utils"
	"donkeymap/pkg/types"
)

type userEnsurer interface {
	Ensure(ctx context.Context, user *types.User) (bool, error)
}

type demoUserSeed struct {
	ID    string
	Email string
	Name  string
	Role  types.UserRole
}

// DemoAdminID moderates the demo surveys.
const DemoAdminID = "00000000-0000-0000-0000-000000000001"

var demoUsers = []demoUserSeed{
	{ID: DemoAdminID, Email: "admin+seed@example.com", Name: "Demo Admin", Role: types.UserRoleAdmin},
	{ID: "11111111-1111-1111-1111-111111111111", Email: "abebe.kebede+seed1@example.com", Name: "Abebe Kebede", Role: types.UserRoleDataCollector},
	{ID: "22222222-2222-2222-2222-222222222222", Email: "amina.hassan+seed2@example.com", Name: "Amina Hassan", Role: types.UserRoleDataCollector},
	{ID: "33333333-3333-3333-3333-333333333333", Email: "juan.perez+seed3@example.com", Name: "Juan Perez", Role: types.UserRoleDataCollector},
	{ID: "44444444-4444-4444-4444-444444444444", Email: "grace.otieno+seed4@example.com", Name: "Grace Otieno", Role: types.UserRoleDataCollector},
}

func demoCollectorIDs() []string {
	ids := make([]string, 0, len(demoUsers))
	for _, user := range demoUsers {
		if user.Role == types.UserRoleDataCollector {
			ids = append(ids, user.ID)
		}
	}
	return ids
}

// SeedDemoUsers creates the demo accounts that do not exist yet. They have no
// identity provider login and only give the demo surveys an owner.
func SeedDemoUsers(ctx context.Context, repo userEnsurer) error {
	created := 0
	for _, demo := range demoUsers {
		ok, err := repo.Ensure(ctx, &types.User{
			ID:     demo.ID,
			Email:  utils.StringPtr(demo.Email),
			Name:   demo.Name,
			Role:   demo.Role,
			Status: types.UserStatusApproved,
		})
		if err != nil {
			return fmt.Errorf("failed to create demo user %s: %w", demo.ID, err)
		}
		if ok {
			created++
		}
	}

	fmt.Printf("Demo users seeded: %d created, %d already present\n", created, len(demoUsers)-created)
	return nil
}
