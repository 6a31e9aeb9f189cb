package auth

import (
	"sort"
	"strings"
)

// ComputeFinalPermissions intersects credential permissions with user
// permissions. Both sides must grant a permission for it to survive (AND, not
// OR): a compromised credential cannot exceed the user's actual rights, and an
// overprivileged user cannot exceed what the credential was scoped to.
//
// Wildcards expand on the credential side only: "tools.*" matches every user
// permission with prefix "tools.". The result is sorted and deduplicated, and
// depends only on set membership, never on input order.
func ComputeFinalPermissions(credentialPerms, userPerms []string) []string {
	if len(credentialPerms) == 0 || len(userPerms) == 0 {
		return []string{}
	}

	expanded := ExpandWildcards(credentialPerms, userPerms)

	userSet := make(map[string]struct{}, len(userPerms))
	for _, p := range userPerms {
		userSet[p] = struct{}{}
	}

	finalSet := make(map[string]struct{})
	for _, p := range expanded {
		if _, ok := userSet[p]; ok {
			finalSet[p] = struct{}{}
		}
	}

	final := make([]string, 0, len(finalSet))
	for p := range finalSet {
		final = append(final, p)
	}
	sort.Strings(final)
	return final
}

// ExpandWildcards expands wildcard permissions against a target permission
// list. A wildcard with no matching target permissions contributes nothing;
// that is not an error.
//
// Example: perms ["tools.*", "chat"] against targets
// ["tools.calculator", "tools.time", "chat", "memory.read"] expands to
// ["tools.calculator", "tools.time", "chat"].
func ExpandWildcards(perms, targetPerms []string) []string {
	seen := make(map[string]struct{})
	expanded := make([]string, 0, len(perms))

	add := func(p string) {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			expanded = append(expanded, p)
		}
	}

	for _, perm := range perms {
		if strings.HasSuffix(perm, ".*") {
			prefix := strings.TrimSuffix(perm, "*") // keep the trailing dot
			for _, target := range targetPerms {
				if strings.HasPrefix(target, prefix) {
					add(target)
				}
			}
		} else {
			add(perm)
		}
	}

	return expanded
}
