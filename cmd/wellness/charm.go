// ABOUTME: CLI commands for the Charm-synced ledger backend.
// ABOUTME: Supports link, unlink, status, repair, reset, and wipe operations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/charm"
	"github.com/harperreed/wellness/internal/ledger"
)

var charmCmd = &cobra.Command{
	Use:         "charm",
	Short:       "Manage the Charm-synced ledger backend",
	Annotations: standalone(),
	Long: `Manage the Charm Cloud backend (backend = "charm").

The ledger is E2E encrypted with your SSH key before upload, and every
device linked to the same account sees the same ledger.

GETTING STARTED:

  1. Select the backend:
     wellness config set backend charm

  2. Link your device (creates/uses SSH key automatically):
     wellness charm link

  3. Check status:
     wellness charm status

COMMANDS:

  link        Link this device to your Charm account
  unlink      Disconnect this device from Charm
  status      Show account info and stored ledger versions
  repair      Repair database corruption (checkpoints WAL, removes SHM, vacuums)
  reset       Reset local data and restore from cloud (destructive)
  wipe        Delete cloud and local data (destructive)`,
}

func charmDBName() string {
	if cfg.CharmDB != "" {
		return cfg.CharmDB
	}
	return charm.DefaultDBName
}

func runCharmCLI(args ...string) error {
	c := exec.Command("charm", args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

var charmLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharmCLI("link"); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}
		color.Green("\n✓ Device linked to Charm")

		client, err := charm.Open(charmDBName(), cfg.CharmHost)
		if err != nil {
			color.Yellow("⚠ Initial sync skipped: %v", err)
			return nil
		}
		defer client.Close()
		if err := client.Sync(); err != nil {
			color.Yellow("⚠ Initial sync failed: %v", err)
		} else {
			color.Green("✓ Initial sync complete")
		}
		return nil
	},
}

var charmUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect from Charm",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharmCLI("unlink"); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}
		color.Green("✓ Device unlinked from Charm")
		fmt.Println("Your local ledger copy is preserved.")
		return nil
	},
}

var charmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Charm account and ledger info",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := charm.Open(charmDBName(), cfg.CharmHost)
		if err != nil {
			color.Yellow("Charm client not available: %v", err)
			fmt.Println("\nRun 'wellness charm link' to connect to Charm.")
			return nil
		}
		defer client.Close()

		id, err := client.ID()
		if err != nil {
			color.Yellow("Not linked to Charm")
			fmt.Println("\nRun 'wellness charm link' to connect to Charm.")
			return nil
		}

		host := cfg.CharmHost
		if host == "" {
			host = charm.DefaultHost
		}
		fmt.Println("Charm ID:", id)
		fmt.Println("Server:", host)
		fmt.Println("Database:", charmDBName())
		if client.IsReadOnly() {
			color.Yellow("⚠ Database is locked by another process (read-only)")
		}
		fmt.Println()

		store := ledger.NewStore(client, cfg.GetLedgerName(), cfg.GetWriteTimeout())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GetWriteTimeout())
		defer cancel()
		objects, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list ledger versions: %w", err)
		}
		color.Green("✓ Connected to Charm")
		fmt.Printf("  Ledger versions: %d\n", len(objects))
		fmt.Printf("  Rows: %d\n", len(store.ReadAll(ctx)))
		return nil
	},
}

var charmWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all cloud and local data",
	Long: `Delete all cloud backups and local data for the ledger database.

This is a DESTRUCTIVE operation. The ledger will be permanently deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("This will PERMANENTLY DELETE all cloud backups and the local ledger.")
		fmt.Print("Type 'wipe' to confirm: ")
		var confirm string
		_, _ = fmt.Scanln(&confirm)
		if confirm != "wipe" {
			fmt.Println("Canceled.")
			return nil
		}

		result, err := kv.Wipe(charmDBName())
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}

		color.Green("✓ Data wiped successfully")
		fmt.Printf("  Cloud backups deleted: %d\n", result.CloudBackupsDeleted)
		fmt.Printf("  Local files deleted: %d\n", result.LocalFilesDeleted)
		return nil
	},
}

var charmRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair database corruption",
	Long: `Repair database corruption by checkpointing WAL, removing SHM files, checking integrity, and vacuuming.

Run with --force to attempt recovery even if integrity checks fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		fmt.Printf("Repairing %s database...\n", charmDBName())
		result, err := kv.Repair(charmDBName(), force)

		if result.WalCheckpointed {
			color.Green("  ✓ WAL checkpointed")
		}
		if result.ShmRemoved {
			color.Green("  ✓ SHM file removed")
		}
		if result.IntegrityOK {
			color.Green("  ✓ Integrity check passed")
		} else {
			color.Red("  ✗ Integrity check failed")
		}
		if result.Vacuumed {
			color.Green("  ✓ Database vacuumed")
		}

		if err != nil {
			if !force {
				color.Yellow("\nRun with --force to attempt recovery.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}

		color.Green("\n✓ Repair complete")
		return nil
	},
}

var charmResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset local data and restore from cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("This will DELETE the local ledger copy and restore it from cloud.")
		fmt.Print("Continue? [y/N]: ")
		var confirm string
		_, _ = fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Canceled.")
			return nil
		}

		if err := kv.Reset(charmDBName()); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		color.Green("✓ Local data reset and restored from cloud")
		return nil
	},
}

func init() {
	charmCmd.AddCommand(charmLinkCmd)
	charmCmd.AddCommand(charmUnlinkCmd)
	charmCmd.AddCommand(charmStatusCmd)
	charmCmd.AddCommand(charmRepairCmd)
	charmCmd.AddCommand(charmResetCmd)
	charmCmd.AddCommand(charmWipeCmd)

	charmRepairCmd.Flags().Bool("force", false, "Attempt recovery even if integrity checks fail")

	rootCmd.AddCommand(charmCmd)
}
