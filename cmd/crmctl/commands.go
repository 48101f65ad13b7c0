package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"multi-tenant-crm/internal/role"
	"multi-tenant-crm/internal/validation"
)

func newSignupCmd(opts *globalOpts) *cobra.Command {
	var form validation.CompanyForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a company and its first admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fields, ok := form.Ok(); !ok {
				for f, msg := range fields {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", f, msg)
				}
				return errors.New("invalid company details")
			}
			c, r := connect(cmd.Context(), opts)
			defer r.Close()

			company, err := c.CreateCompany(cmd.Context(), form.Name, form.Email, form.Password)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), company)
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "company name")
	cmd.Flags().StringVar(&form.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&form.Password, "password", envOr("CRM_PASSWORD", ""), "admin password")
	return cmd
}

func newLoginCmd(opts *globalOpts) *cobra.Command {
	var form validation.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fields, ok := form.Ok(); !ok {
				for f, msg := range fields {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", f, msg)
				}
				return errors.New("invalid credentials format")
			}
			_, r := connect(cmd.Context(), opts)
			defer r.Close()

			res := r.Login(cmd.Context(), form.Email, form.Password)
			if !res.Success {
				return errors.New(res.Error)
			}
			u, _ := r.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s) at %s\n", u.Email, u.Role, u.TenantName)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", envOr("CRM_PASSWORD", ""), "account password")
	return cmd
}

func newLogoutCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r := connect(cmd.Context(), opts)
			defer r.Close()

			if err := r.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and company",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, r := connect(cmd.Context(), opts)
			defer r.Close()

			u, ok := r.User()
			if !ok {
				return errNotSignedIn
			}
			return writeJSON(cmd.OutOrStdout(), u)
		},
	}
}

func newCompaniesCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List every company admin (super admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, r := connect(cmd.Context(), opts)
			defer r.Close()

			if !r.IsAuthenticated() {
				return errNotSignedIn
			}
			if !r.HasRequiredRole(role.SuperAdmin) {
				return errors.New("companies requires the super_admin role")
			}
			admins, err := c.Companies(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), admins)
		},
	}
}

func newLeadsCmd(opts *globalOpts) *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List leads of your company",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, r := connect(cmd.Context(), opts)
			defer r.Close()

			if !r.IsAuthenticated() {
				return errNotSignedIn
			}
			leads, err := c.Leads(cmd.Context(), status, search)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), leads)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only leads with this status")
	cmd.Flags().StringVarP(&search, "query", "q", "", "search name, email or phone")
	return cmd
}
