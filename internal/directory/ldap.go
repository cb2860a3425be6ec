package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/internal/monitoring"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// LDAPDirectory resolves role membership from an LDAP/AD group. Role names
// map to group CNs under the configured group base DN.
type LDAPDirectory struct {
	config config.LDAPConfig
	logger logger.Logger
}

func NewLDAPDirectory(cfg config.LDAPConfig, logger logger.Logger) *LDAPDirectory {
	return &LDAPDirectory{
		config: cfg,
		logger: logger,
	}
}

func (d *LDAPDirectory) GetUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	conn, err := ldap.DialURL(d.config.URL)
	if err != nil {
		monitoring.RecordDirectoryLookup("ldap", "error")
		return nil, fmt.Errorf("LDAP connection failed: %w", err)
	}
	defer conn.Close()

	if d.config.Timeout > 0 {
		conn.SetTimeout(time.Duration(d.config.Timeout) * time.Millisecond)
	}

	if d.config.BindDN != "" {
		if err := conn.Bind(d.config.BindDN, d.config.BindPassword); err != nil {
			monitoring.RecordDirectoryLookup("ldap", "error")
			return nil, fmt.Errorf("LDAP bind failed: %w", err)
		}
	}

	groupDN := fmt.Sprintf("cn=%s,%s", ldap.EscapeFilter(role), d.config.GroupBaseDN)
	searchRequest := ldap.NewSearchRequest(
		d.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf("(&(objectClass=person)(memberOf=%s))", groupDN),
		[]string{"uid", "cn", "mail", "telephoneNumber", "memberOf"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		monitoring.RecordDirectoryLookup("ldap", "error")
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}

	users := make([]*models.User, 0, len(searchResult.Entries))
	for _, entry := range searchResult.Entries {
		user := &models.User{
			ID:    entry.GetAttributeValue("uid"),
			Name:  entry.GetAttributeValue("cn"),
			Email: entry.GetAttributeValue("mail"),
			Phone: entry.GetAttributeValue("telephoneNumber"),
			Roles: extractRolesFromMemberOf(entry.GetAttributeValues("memberOf")),
		}

		// Directory servers carry contact data, not channel opt-ins;
		// derive preferred channels from what is reachable.
		user.NotificationChannels = []string{"email", "realtime"}
		if user.Phone != "" {
			user.NotificationChannels = append(user.NotificationChannels, "sms")
		}
		if user.ID != "" {
			user.DeviceTopic = user.ID
		}

		users = append(users, user)
	}

	result := "success"
	if len(users) == 0 {
		result = "empty"
	}
	monitoring.RecordDirectoryLookup("ldap", result)

	d.logger.Debug("LDAP role lookup", "role", role, "members", len(users))
	return users, nil
}

func extractRolesFromMemberOf(memberOf []string) []string {
	var roles []string
	for _, group := range memberOf {
		// Extract role from group DN
		// Example: "cn=operator,ou=groups,dc=company,dc=com" -> "operator"
		parts := strings.Split(group, ",")
		if len(parts) > 0 {
			cnPart := strings.TrimSpace(parts[0])
			if strings.HasPrefix(cnPart, "cn=") {
				roles = append(roles, strings.TrimPrefix(cnPart, "cn="))
			}
		}
	}
	return roles
}
