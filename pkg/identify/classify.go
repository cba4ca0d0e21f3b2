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

package identify

import (
	"strings"

	"github.com/carverauto/netpoll/pkg/models"
)

type descrRule struct {
	markers []string
	vendor  models.VendorTag
}

// checked in order; NX-OS and IOS XE descriptions also contain "Cisco IOS"
var descrRules = []descrRule{
	{[]string{"nx-os", "nexus"}, models.VendorCiscoNXOS},
	{[]string{"ios-xe", "ios xe"}, models.VendorCiscoXE},
	{[]string{"cisco ios", "cisco internetwork operating system"}, models.VendorCiscoIOS},
	{[]string{"arista", " eos"}, models.VendorAristaEOS},
	{[]string{"junos", "juniper"}, models.VendorJuniperJunos},
	{[]string{"linux"}, models.VendorLinux},
}

// ClassifySysDescr maps an SNMP sysDescr string to a command dialect.
func ClassifySysDescr(descr string) (models.VendorTag, bool) {
	d := " " + strings.ToLower(descr)

	for _, r := range descrRules {
		for _, m := range r.markers {
			if strings.Contains(d, m) {
				return r.vendor, true
			}
		}
	}

	return "", false
}

var enterprisePrefixes = []struct {
	prefix string
	vendor models.VendorTag
}{
	{".1.3.6.1.4.1.9.12.3.1.3.", models.VendorCiscoNXOS},
	{".1.3.6.1.4.1.9.", models.VendorCiscoIOS},
	{".1.3.6.1.4.1.30065.", models.VendorAristaEOS},
	{".1.3.6.1.4.1.2636.", models.VendorJuniperJunos},
	{".1.3.6.1.4.1.8072.", models.VendorLinux},
}

// ClassifySysObjectID is the fallback when sysDescr is empty or generic.
func ClassifySysObjectID(oid string) (models.VendorTag, bool) {
	if oid == "" {
		return "", false
	}

	if !strings.HasPrefix(oid, ".") {
		oid = "." + oid
	}

	for _, e := range enterprisePrefixes {
		if strings.HasPrefix(oid+".", e.prefix) {
			return e.vendor, true
		}
	}

	return "", false
}
