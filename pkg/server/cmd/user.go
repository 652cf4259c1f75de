/* Copyright 2025 Biblios Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff users",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserRemoveCmd())
	cmd.AddCommand(newUserListCmd())

	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var username string
	var email string
	var password string
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff user",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedRole, err := database.ParseUserRole(role)
			if err != nil {
				return err
			}

			a, cleanup, err := setupApp(dbPathFlag)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := a.CreateUser(app.CreateUserParams{
				Username: username,
				Email:    email,
				Password: password,
				Role:     parsedRole,
			})
			if err != nil {
				return errors.Wrap(err, "creating user")
			}

			fmt.Printf("User created successfully\n")
			fmt.Printf("Username: %s\n", user.Username)
			fmt.Printf("Role: %s\n", user.Role)

			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	cmd.Flags().StringVar(&role, "role", string(database.RoleStaff), "role: admin or staff")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUserRemoveCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a staff user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(dbPathFlag)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := a.GetUserByUsername(username)
			if err != nil {
				return err
			}

			ok, err := confirm(os.Stdin, fmt.Sprintf("Remove user %s?", username), false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				fmt.Println("Aborted by user")
				return nil
			}

			if err := a.DeleteUser(user.ID); err != nil {
				return errors.Wrap(err, "removing user")
			}

			fmt.Printf("User removed successfully\n")
			fmt.Printf("Username: %s\n", username)

			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username (required)")
	cmd.MarkFlagRequired("username")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staff users",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(dbPathFlag)
			if err != nil {
				return err
			}
			defer cleanup()

			users, err := a.ListUsers()
			if err != nil {
				return err
			}

			for _, user := range users {
				status := color.GreenString("active")
				if !user.Active {
					status = color.RedString("inactive")
				}

				fmt.Printf("%s\t%s\t%s\t%s\n", color.CyanString(user.Username), user.Email, user.Role, status)
			}

			return nil
		},
	}
}
