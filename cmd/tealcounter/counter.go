package tealcounter

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/spf13/cobra"

	"github.com/manifest-network/tealcounter/internal/counter"
	"github.com/manifest-network/tealcounter/internal/models"
)

// newAccountFunding is the amount a fresh caller account receives from the faucet.
const newAccountFunding = 1_000_000

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a new counter application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		initial, err := cmd.Flags().GetUint64("initial")
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		creator, err := a.creator()
		if err != nil {
			return err
		}

		res, err := a.counter().Deploy(cmd.Context(), creator, initial)
		if err != nil {
			return err
		}

		err = a.out.WriteDeployment(cmd.Context(), &models.Deployment{
			AppID:          res.AppID,
			AppAddress:     res.AppAddress,
			Creator:        res.Creator,
			TxID:           res.TxID,
			ConfirmedRound: res.ConfirmedRound,
			InitialValue:   initial,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "app id:      %d\napp address: %s\ntx id:       %s\nround:       %d\n",
			res.AppID, res.AppAddress, res.TxID, res.ConfirmedRound)
		return nil
	},
}

var incrementCmd = newInvokeCmd(counter.Increment)

var decrementCmd = newInvokeCmd(counter.Decrement)

func newInvokeCmd(method counter.Method) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(method) + " [app-id]",
		Short: fmt.Sprintf("Call the %s method of a counter application", method),
		Long: fmt.Sprintf(`Call the %s method of a counter application. Without an app id the
latest recorded deployment of the creator is used.`, method),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asNew, err := cmd.Flags().GetBool("new-account")
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			creator, err := a.creator()
			if err != nil {
				return err
			}
			appID, err := resolveAppID(cmd.Context(), a.out, args, creator.Address.String())
			if err != nil {
				return err
			}

			c := a.counter()
			caller := creator
			if asNew {
				faucet, err := a.faucet()
				if err != nil {
					return err
				}
				if caller, err = c.CreateFundedAccount(cmd.Context(), faucet, newAccountFunding); err != nil {
					return err
				}
			}

			return invoke(cmd, a, c, caller, appID, method)
		},
	}
	cmd.Flags().Bool("new-account", false, "Call from a freshly funded account instead of the creator")
	return cmd
}

func invoke(cmd *cobra.Command, a *app, c *counter.Counter, caller crypto.Account, appID uint64, method counter.Method) error {
	res, err := c.Invoke(cmd.Context(), caller, appID, method)
	if err != nil {
		return err
	}

	err = a.out.WriteCall(cmd.Context(), &models.Call{
		AppID:          appID,
		Sender:         res.Sender,
		Method:         string(method),
		TxID:           res.TxID,
		ConfirmedRound: res.ConfirmedRound,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "tx id: %s\nround: %d\n", res.TxID, res.ConfirmedRound)
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete [app-id]",
	Short: "Delete a counter application",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		creator, err := a.creator()
		if err != nil {
			return err
		}
		appID, err := resolveAppID(cmd.Context(), a.out, args, creator.Address.String())
		if err != nil {
			return err
		}

		sub, err := a.counter().Delete(cmd.Context(), creator, appID)
		if err != nil {
			return err
		}
		if err := a.out.MarkDeleted(cmd.Context(), appID); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted app %d in round %d (tx %s)\n", appID, sub.ConfirmedRound, sub.TxID)
		return nil
	},
}

func init() {
	deployCmd.Flags().Uint64("initial", 0, "Initial counter value")
}
