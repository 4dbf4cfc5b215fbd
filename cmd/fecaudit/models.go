package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fecaudit/fecaudit/internal/cli"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage trained model versions",
	}
	cmd.AddCommand(modelsListCmd())
	cmd.AddCommand(modelsActivateCmd())
	return cmd
}

func modelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered model versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, closeReg, err := openRegistry()
			if err != nil {
				return err
			}
			if reg == nil {
				return fmt.Errorf("no model registry configured (--registry)")
			}
			defer closeReg() //nolint:errcheck // read-side close

			records, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(cli.FormatInfo("No models registered"))
				return nil
			}

			header := cli.TableHeaderStyle.Render("VERSION") + "  " +
				cli.TableHeaderStyle.Render("CREATED") + "  " +
				cli.TableHeaderStyle.Render("ACTIVE")
			fmt.Fprintln(os.Stdout, header)
			for _, rec := range records {
				active := ""
				if rec.Active {
					active = cli.SuccessStyle.Render(cli.SuccessIcon)
				}
				row := strings.Join([]string{
					cli.TableCellStyle.Render(rec.Version),
					cli.TableCellStyle.Render(rec.CreatedAt.Format("2006-01-02 15:04")),
					active,
				}, "  ")
				fmt.Fprintln(os.Stdout, row)
			}
			return nil
		},
	}
}

func modelsActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <version>",
		Short: "Mark a model version as active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, closeReg, err := openRegistry()
			if err != nil {
				return err
			}
			if reg == nil {
				return fmt.Errorf("no model registry configured (--registry)")
			}
			defer closeReg() //nolint:errcheck // read-side close

			if err := reg.SetActive(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Activated model " + args[0]))
			return nil
		},
	}
}
