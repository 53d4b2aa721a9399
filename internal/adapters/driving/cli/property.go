package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Manage rental properties",
}

var propertyAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a property",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropertyAdd,
}

var propertyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties",
	RunE:  runPropertyList,
}

var propertyCleaningCmd = &cobra.Command{
	Use:   "cleaning <property-id>",
	Short: "Set the cleaning days before and after each stay",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropertyCleaning,
}

var (
	propertyID   string
	cleaningPre  int
	cleaningPost int
)

func init() {
	propertyAddCmd.Flags().StringVar(&propertyID, "id", "", "property ID (generated when empty)")
	for _, c := range []*cobra.Command{propertyAddCmd, propertyCleaningCmd} {
		c.Flags().IntVar(&cleaningPre, "pre", 0, "cleaning days before check-in")
		c.Flags().IntVar(&cleaningPost, "post", 0, "cleaning days from check-out")
	}

	propertyCmd.AddCommand(propertyAddCmd)
	propertyCmd.AddCommand(propertyListCmd)
	propertyCmd.AddCommand(propertyCleaningCmd)
	rootCmd.AddCommand(propertyCmd)
}

func runPropertyAdd(cmd *cobra.Command, args []string) error {
	if propertyService == nil {
		return errors.New("property service not configured")
	}

	p := domain.Property{
		ID:       propertyID,
		Name:     args[0],
		Cleaning: domain.CleaningPolicy{PreDays: cleaningPre, PostDays: cleaningPost},
	}
	if err := p.Cleaning.Validate(); err != nil {
		return err
	}
	if err := propertyService.Add(commandContext(cmd), p); err != nil {
		return fmt.Errorf("failed to add property: %w", err)
	}
	cmd.Printf("Added property %q\n", p.Name)
	return nil
}

func runPropertyList(cmd *cobra.Command, _ []string) error {
	if propertyService == nil {
		return errors.New("property service not configured")
	}

	props, err := propertyService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list properties: %w", err)
	}
	if len(props) == 0 {
		cmd.Println("No properties configured.")
		return nil
	}
	for i := range props {
		p := &props[i]
		cmd.Printf("%s  %q  cleaning %d before / %d after\n",
			p.ID, p.Name, p.Cleaning.PreDays, p.Cleaning.PostDays)
	}
	return nil
}

func runPropertyCleaning(cmd *cobra.Command, args []string) error {
	if propertyService == nil {
		return errors.New("property service not configured")
	}

	policy := domain.CleaningPolicy{PreDays: cleaningPre, PostDays: cleaningPost}
	if err := propertyService.SetCleaningPolicy(commandContext(cmd), args[0], policy); err != nil {
		return fmt.Errorf("failed to set cleaning policy: %w", err)
	}
	cmd.Printf("Cleaning for %s: %d before, %d after\n", args[0], policy.PreDays, policy.PostDays)
	return nil
}
