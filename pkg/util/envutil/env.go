// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package envutil reads configuration overrides from COLQ_ environment
// variables. A variable that is set but cannot be parsed panics, since it
// always indicates a misconfigured environment.
package envutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func checkName(name string) {
	if !strings.HasPrefix(name, "COLQ_") {
		panic(fmt.Sprintf("environment variable %s must start with COLQ_", name))
	}
}

func getEnv(name string) (string, bool) {
	checkName(name)
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// EnvString returns the value of the named variable and whether it was set.
func EnvString(name string) (string, bool) {
	return getEnv(name)
}

// EnvOrDefaultInt returns the value of the named variable parsed as an int,
// or value if it is not set.
func EnvOrDefaultInt(name string, value int) int {
	if str, present := getEnv(name); present {
		v, err := strconv.ParseInt(str, 0, 64)
		if err != nil {
			panic(fmt.Sprintf("error parsing %s: %s", name, err))
		}
		return int(v)
	}
	return value
}

// EnvOrDefaultBool returns the value of the named variable parsed as a bool,
// or value if it is not set.
func EnvOrDefaultBool(name string, value bool) bool {
	if str, present := getEnv(name); present {
		v, err := strconv.ParseBool(str)
		if err != nil {
			panic(fmt.Sprintf("error parsing %s: %s", name, err))
		}
		return v
	}
	return value
}

// EnvOrDefaultFloat64 returns the value of the named variable parsed as a
// float64, or value if it is not set.
func EnvOrDefaultFloat64(name string, value float64) float64 {
	if str, present := getEnv(name); present {
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			panic(fmt.Sprintf("error parsing %s: %s", name, err))
		}
		return v
	}
	return value
}
