package seed

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"donkeymap/pkg/types"

	"gopkg.in/yaml.v3"
)

//go:embed rewards.yaml
var rewardsYAML []byte

type rewardUpserter interface {
	UpsertByName(ctx context.Context, reward *types.Reward) error
}

// Catalogue decodes the bundled reward list, cheapest first. Entries have no
// id since they may not exist in the database.
func Catalogue() ([]*types.Reward, error) {
	rewards := make([]*types.Reward, 0)
	if err := yaml.Unmarshal(rewardsYAML, &rewards); err != nil {
		return nil, fmt.Errorf("failed to decode reward catalogue: %w", err)
	}

	for i, r := range rewards {
		if r.Name == "" || r.Points <= 0 {
			return nil, fmt.Errorf("reward catalogue entry %d needs a name and positive points", i)
		}
	}

	sort.SliceStable(rewards, func(i, j int) bool {
		return rewards[i].Points < rewards[j].Points
	})

	return rewards, nil
}

// SeedRewards syncs the rewards table with rewards.yaml. Existing rewards
// with the same name are updated in place so claims keep their reference.
func SeedRewards(ctx context.Context, repo rewardUpserter) error {
	rewards, err := Catalogue()
	if err != nil {
		return err
	}

	fmt.Println("Starting reward sync...")
	fmt.Printf("  Seed file contains %d rewards\n", len(rewards))

	for _, reward := range rewards {
		if err := repo.UpsertByName(ctx, reward); err != nil {
			return fmt.Errorf("failed to upsert reward %q: %w", reward.Name, err)
		}
	}

	fmt.Printf("Rewards seeded: %d upserted\n", len(rewards))
	return nil
}
