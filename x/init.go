/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

var (
	// These variables are set using -ldflags
	usergraphVersion string
	gitBranch        string
	lastCommitSHA    string
	lastCommitTime   string
)

// BuildDetails returns a string containing details about the binary.
func BuildDetails() string {
	return fmt.Sprintf(`
usergraph version : %v
Commit SHA-1      : %v
Commit timestamp  : %v
Branch            : %v

Licensed under the Apache Public License 2.0.
`,
		Version(), lastCommitSHA, lastCommitTime, gitBranch)
}

// PrintVersion prints version and other helpful information if --version.
func PrintVersion() {
	glog.Infof("\n%s\n", BuildDetails())
}

// PrintVersionOnly prints the build details and exits.
func PrintVersionOnly() {
	fmt.Println(BuildDetails())
	os.Exit(0)
}

// Version returns a string containing the version of the binary.
func Version() string {
	if usergraphVersion == "" {
		return "dev"
	}
	return usergraphVersion
}
