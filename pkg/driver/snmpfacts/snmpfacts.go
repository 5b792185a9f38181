/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package snmpfacts fills in device facts from the SNMP system group when
// the CLI output does not carry them.
package snmpfacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/carverauto/ncc/pkg/driver"
)

const (
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	oidSysObjectID = ".1.3.6.1.2.1.1.2.0"
	oidSysName     = ".1.3.6.1.2.1.1.5.0"

	enterprisePrefix = ".1.3.6.1.4.1."
	defaultPort      = 161
)

var (
	ErrSNMPGetFailed      = errors.New("SNMP get failed")
	ErrSNMPError          = errors.New("SNMP error")
	ErrNoSNMPDataReturned = errors.New("no SNMP data returned")
	ErrCommunityRequired  = errors.New("SNMP community is required")
)

// enterpriseVendors maps IANA private enterprise numbers to vendor names.
var enterpriseVendors = map[string]string{
	"9":     "Cisco",
	"2636":  "Juniper",
	"30065": "Arista",
	"41112": "Ubiquiti",
	"44641": "VyOS",
}

// Query holds the target of one SNMPv2c system-group lookup.
type Query struct {
	Target    string
	Port      int
	Community string
	Timeout   time.Duration
	Retries   int
}

// FromParams builds a query from inventory optional_args, nil when no
// snmp_community is configured.
func FromParams(params *driver.ConnectionParams) *Query {
	community := params.OptionalArgs.String(driver.OptSNMPCommunity, "")
	if community == "" {
		return nil
	}

	return &Query{
		Target:    params.Hostname,
		Port:      params.OptionalArgs.Int(driver.OptSNMPPort, defaultPort),
		Community: community,
		Timeout:   5 * time.Second,
		Retries:   1,
	}
}

// Facts performs a single GET of sysDescr, sysObjectID and sysName.
func (q *Query) Facts(ctx context.Context) (*driver.Facts, error) {
	if q.Community == "" {
		return nil, ErrCommunityRequired
	}

	port := q.Port
	if port == 0 {
		port = defaultPort
	}

	client := &gosnmp.GoSNMP{
		Target:             q.Target,
		Port:               uint16(port), //nolint:gosec // port comes from a validated int
		Community:          q.Community,
		Version:            gosnmp.Version2c,
		Timeout:            q.Timeout,
		Retries:            q.Retries,
		MaxOids:            gosnmp.MaxOids,
		ExponentialTimeout: true,
		Context:            ctx,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrSNMPGetFailed, q.Target, err)
	}
	defer func() { _ = client.Conn.Close() }()

	result, err := client.Get([]string{oidSysDescr, oidSysObjectID, oidSysName})
	if err != nil {
		return nil, fmt.Errorf("%w %w", ErrSNMPGetFailed, err)
	}

	if result.Error != gosnmp.NoError {
		return nil, fmt.Errorf("%w %s", ErrSNMPError, result.Error)
	}

	facts := ParseSystemGroup(result.Variables)
	if facts == nil {
		return nil, ErrNoSNMPDataReturned
	}

	return facts, nil
}

// ParseSystemGroup converts system-group varbinds into facts, nil when
// none of them carried a value.
func ParseSystemGroup(vars []gosnmp.SnmpPDU) *driver.Facts {
	facts := &driver.Facts{}
	found := false

	for _, v := range vars {
		if v.Type == gosnmp.NoSuchObject || v.Type == gosnmp.NoSuchInstance || v.Type == gosnmp.EndOfMibView {
			continue
		}

		switch v.Name {
		case oidSysDescr:
			if b, ok := v.Value.([]byte); ok {
				facts.Model = firstLine(string(b))
				found = true
			}
		case oidSysName:
			if b, ok := v.Value.([]byte); ok {
				facts.Hostname = strings.TrimSpace(string(b))
				found = true
			}
		case oidSysObjectID:
			if s, ok := v.Value.(string); ok {
				facts.Vendor = VendorFromObjectID(s)
				found = true
			}
		}
	}

	if !found {
		return nil
	}

	return facts
}

// VendorFromObjectID maps a sysObjectID to a vendor name by its private
// enterprise number, empty when unknown.
func VendorFromObjectID(oid string) string {
	if !strings.HasPrefix(oid, ".") {
		oid = "." + oid
	}

	if !strings.HasPrefix(oid, enterprisePrefix) {
		return ""
	}

	enterprise, _, _ := strings.Cut(strings.TrimPrefix(oid, enterprisePrefix), ".")

	return enterpriseVendors[enterprise]
}

// Merge copies fields from extra into facts where facts has none.
func Merge(facts, extra *driver.Facts) *driver.Facts {
	if facts == nil {
		facts = &driver.Facts{}
	}

	if extra == nil {
		return facts
	}

	if facts.Vendor == "" {
		facts.Vendor = extra.Vendor
	}

	if facts.Model == "" {
		facts.Model = extra.Model
	}

	if facts.OSVersion == "" {
		facts.OSVersion = extra.OSVersion
	}

	if facts.Hostname == "" {
		facts.Hostname = extra.Hostname
	}

	if facts.Serial == "" {
		facts.Serial = extra.Serial
	}

	return facts
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")

	return strings.TrimSpace(line)
}
