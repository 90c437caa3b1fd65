package client_test

import (
	"context"
	"fmt"

	"github.com/daniacca/achemsim/pkg/client"
)

func ExampleRulesBuilder() {
	rules := client.NewRules("uranium").
		Species(
			client.NewSpecies("U", 235, 3).Name("Uranium").Color(0, 255, 0).
				MaxEnergy(50).FissionStability(0.9).CollisionFissionStability(0.99),
			client.NewSpecies("Ba", 141, 2.5).Color(255, 255, 0),
			client.NewSpecies("Kr", 92, 2).Color(0, 128, 255),
			client.NewSpecies("energy", 1, 0.5),
		).
		Fission("U", "Ba", "Kr")

	cfg := rules.Build()
	fmt.Printf("Rules: %s\n", cfg.Name)
	fmt.Printf("Species: %d\n", len(cfg.Species))
	fmt.Printf("Fissions: %d\n", len(cfg.Fissions))
	// Output:
	// Rules: uranium
	// Species: 4
	// Fissions: 1
}

func ExampleApplyRules() {
	ctx := context.Background()
	rules := client.NewRules("water").
		Species(
			client.NewSpecies("H", 1, 1),
			client.NewSpecies("O", 16, 2),
			client.NewSpecies("OH", 17, 2.5),
		).
		Reaction("H", "O", "OH")

	// This would send the rules to the server, then drive the world:
	// err := client.ApplyRules(ctx, "http://localhost:8080", "lab", rules)
	// _, err = client.Spawn(ctx, "http://localhost:8080", "lab", client.Particle("H", 10, 10, 5, 0))
	// stats, err := client.Tick(ctx, "http://localhost:8080", "lab", 100)

	_ = ctx
	_ = rules
}

func ExampleOpenStream() {
	ctx := context.Background()

	// Uncomment to follow a running world:
	// stream, err := client.OpenStream(ctx, "http://localhost:8080", "lab", "msgpack")
	// if err != nil {
	// 	log.Fatal(err)
	// }
	// defer stream.Close()
	// for {
	// 	event, err := stream.Next()
	// 	if err != nil {
	// 		return
	// 	}
	// 	fmt.Println(event.Kind, event.Tick)
	// }

	_ = ctx
}
