package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/trezcool/milestone/storage/database"
)

func (cli *commandLine) seed() error {
	inserted, err := database.Seed(context.Background(), cli.seeder)
	if err != nil {
		return err
	}
	if len(inserted) == 0 {
		fmt.Println("Nothing to seed.")
		return nil
	}
	fmt.Printf("Seeded: %s\n", strings.Join(inserted, ", "))
	return nil
}
