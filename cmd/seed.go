/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/pointsboard/apiserver/config"
	"github.com/pointsboard/apiserver/internal/db"
	"github.com/pointsboard/apiserver/internal/mq"
	"github.com/pointsboard/apiserver/internal/services"
	"github.com/pointsboard/apiserver/internal/store"
	"github.com/pointsboard/apiserver/types"
	"github.com/spf13/cobra"
)

var seedCount int

var seedNames = []string{
	"Emma", "Noah", "James", "William", "Olivia",
	"Liam", "Ava", "Isabella", "Sophia", "Mason",
}

var seedAddresses = []string{
	"123 Main St", "456 Oak Ave", "789 Pine Rd", "321 Elm St", "654 Maple Dr",
}

// seedCmd inserts randomly generated users. Insertions go through the
// user service, so they publish change-feed events like API creations.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with random users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		// The in-process broker cannot reach a server running in another
		// process; seeding then skips event publishing.
		var publisher services.EventPublisher
		var bus *mq.MQ
		if cfg.Broker.Kind != config.BrokerMemory && cfg.Broker.Kind != "" {
			bus, err = buildSeedBroker(cmd, cfg.Broker)
			if err != nil {
				return err
			}
			defer bus.Close()
			publisher = bus
		}

		userService := services.NewUserService(
			store.NewUserRepository(dbConn),
			publisher,
			log.New(os.Stdout, "", log.LstdFlags),
		)

		for i := 0; i < seedCount; i++ {
			user := types.User{
				Name:    seedNames[rand.Intn(len(seedNames))],
				Age:     18 + rand.Intn(53), // [18, 70]
				Address: seedAddresses[rand.Intn(len(seedAddresses))],
			}
			if _, err := userService.Create(ctx, user); err != nil {
				return fmt.Errorf("seed user %d: %w", i+1, err)
			}
		}

		fmt.Printf("Created %d random users\n", seedCount)
		return nil
	},
}

func buildSeedBroker(cmd *cobra.Command, cfg config.BrokerConfig) (*mq.MQ, error) {
	switch cfg.Kind {
	case config.BrokerRabbitMQ:
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case config.BrokerPubSub:
		backend, err := mq.NewPubSubClient(cmd.Context(), cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Kind)
	}
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedCount, "count", 5, "Number of users to create")
}
