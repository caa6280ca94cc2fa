package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandayo-labs/veilsdk/content"
	"github.com/pandayo-labs/veilsdk/fakeserver"
	"github.com/pandayo-labs/veilsdk/user"
	"github.com/pandayo-labs/veilsdk/wire"
)

var (
	demoIdentifier string
	demoPassword   string
	demoMessage    string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a full register/login/encrypt round trip against an in-memory server",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVar(&demoIdentifier, "identifier", "admin", "device identifier to register and log in with")
	demoCmd.Flags().StringVar(&demoPassword, "password", "12345", "account password")
	demoCmd.Flags().StringVar(&demoMessage, "message", "123*+^êéèüöß@€&$ \U0001F44D \U0001F680", "plaintext to round-trip through the user's group key")
}

func runDemo(cmd *cobra.Command, args []string) error {
	srv := fakeserver.New([]byte("vaultctl-demo-secret"))

	fmt.Println("== register ==")
	reg, err := user.Register(demoIdentifier, demoPassword)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	regOut, err := srv.Register(wire.RegisterData{Device: reg.Request.Device, Group: reg.Request.Group})
	if err != nil {
		return fmt.Errorf("server register: %w", err)
	}
	fmt.Printf("registered device_id=%s user_id=%s\n", regOut.DeviceID, regOut.UserID)

	fmt.Println("== login ==")
	prepareIn := user.PrepareLogin(demoIdentifier)
	prepareOut, err := srv.PrepareLogin(prepareIn)
	if err != nil {
		return fmt.Errorf("server prepare_login: %w", err)
	}
	derived, err := user.DeriveLogin(demoPassword, prepareOut)
	if err != nil {
		return fmt.Errorf("derive_login: %w", err)
	}
	doneIn := user.DoneLoginInput(demoIdentifier, derived)
	doneOut, err := srv.DoneLogin(doneIn)
	if err != nil {
		return fmt.Errorf("server done_login: %w", err)
	}
	loginResult, err := user.DoneLogin(derived, doneOut)
	if err != nil {
		return fmt.Errorf("done_login: %w", err)
	}
	fmt.Printf("logged in, recovered %d user-group bundle(s)\n", len(loginResult.UserGroups))

	if len(loginResult.UserGroups) == 0 {
		return fmt.Errorf("login returned no user-group bundles")
	}
	userGroup := loginResult.UserGroups[0]

	fmt.Println("== content round trip ==")
	plaintext := []byte(demoMessage)
	head, ciphertext, err := content.EncryptSymmetricRaw(userGroup.Key, plaintext, nil, userGroup.Sign)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	fmt.Printf("encrypted %d bytes under key %s\n", len(ciphertext), head.ID)

	recovered, err := content.DecryptSymmetricRaw(userGroup.Key, head, ciphertext, nil, userGroup.Verify)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	if string(recovered) != demoMessage {
		return fmt.Errorf("round trip mismatch: got %q", recovered)
	}
	fmt.Printf("round trip ok: %q\n", recovered)
	return nil
}
