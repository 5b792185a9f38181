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

package snmpfacts

import (
	"context"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/ncc/pkg/driver"
)

func TestParseSystemGroup(t *testing.T) {
	vars := []gosnmp.SnmpPDU{
		{Name: oidSysDescr, Type: gosnmp.OctetString, Value: []byte("Arista Networks EOS version 4.30.1F\nrunning on DCS-7050")},
		{Name: oidSysObjectID, Type: gosnmp.ObjectIdentifier, Value: ".1.3.6.1.4.1.30065.1.3011.7050"},
		{Name: oidSysName, Type: gosnmp.OctetString, Value: []byte("leaf1 ")},
	}

	facts := ParseSystemGroup(vars)
	require.NotNil(t, facts)

	assert.Equal(t, "Arista", facts.Vendor)
	assert.Equal(t, "leaf1", facts.Hostname)
	assert.Equal(t, "Arista Networks EOS version 4.30.1F", facts.Model)
}

func TestParseSystemGroupNoData(t *testing.T) {
	vars := []gosnmp.SnmpPDU{
		{Name: oidSysName, Type: gosnmp.NoSuchObject},
		{Name: oidSysDescr, Type: gosnmp.NoSuchInstance},
	}

	assert.Nil(t, ParseSystemGroup(vars))
}

func TestVendorFromObjectID(t *testing.T) {
	tests := []struct {
		oid  string
		want string
	}{
		{oid: ".1.3.6.1.4.1.9.1.1208", want: "Cisco"},
		{oid: "1.3.6.1.4.1.2636.1.1.1.2.21", want: "Juniper"},
		{oid: ".1.3.6.1.4.1.99999.1", want: ""},
		{oid: ".1.3.6.1.2.1.1", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.oid, func(t *testing.T) {
			assert.Equal(t, tt.want, VendorFromObjectID(tt.oid))
		})
	}
}

func TestMergeKeepsExisting(t *testing.T) {
	facts := &driver.Facts{Vendor: "Cisco", Hostname: "core1"}

	merged := Merge(facts, &driver.Facts{Vendor: "Other", Model: "C9300", Hostname: "x"})

	assert.Equal(t, "Cisco", merged.Vendor)
	assert.Equal(t, "core1", merged.Hostname)
	assert.Equal(t, "C9300", merged.Model)
	assert.Equal(t, &driver.Facts{}, Merge(nil, nil))
}

func TestFromParams(t *testing.T) {
	assert.Nil(t, FromParams(&driver.ConnectionParams{Hostname: "r1"}))

	q := FromParams(&driver.ConnectionParams{
		Hostname:     "r1",
		OptionalArgs: driver.Options{driver.OptSNMPCommunity: "public", driver.OptSNMPPort: 1161},
	})
	require.NotNil(t, q)
	assert.Equal(t, "r1", q.Target)
	assert.Equal(t, 1161, q.Port)
	assert.Equal(t, "public", q.Community)
}

func TestFactsRequiresCommunity(t *testing.T) {
	_, err := (&Query{Target: "127.0.0.1"}).Facts(context.Background())

	require.ErrorIs(t, err, ErrCommunityRequired)
}
