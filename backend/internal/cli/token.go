package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"plantao/backend/pkg/jwt"
)

// ValidRoles roles accepted by the token command
var ValidRoles = []string{jwt.RoleProfessional, jwt.RoleClinic, jwt.RoleModerator, jwt.RoleAdmin}

// TokenOptions flags of the token command
type TokenOptions struct {
	UserID string
	Role   string
}

// NewTokenCommand signs a token with the configured secret, for local development and smoke tests.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Gera um token JWT de desenvolvimento",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.UserID == "" {
				return fmt.Errorf("--user é obrigatório")
			}
			if !isValidRole(opts.Role) {
				return fmt.Errorf("papel inválido %q: use um de %v", opts.Role, ValidRoles)
			}

			cfg, _, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			token, err := jwt.NewManager(&cfg.Auth).GenerateToken(opts.UserID, opts.Role)
			if err != nil {
				return fmt.Errorf("falha ao assinar token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "id do usuário (sub)")
	cmd.Flags().StringVar(&opts.Role, "role", jwt.RoleProfessional, "papel: professional|clinic|moderator|admin")

	return cmd
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
