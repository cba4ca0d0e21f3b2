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

import "errors"

var (
	ErrSNMPGet          = errors.New("snmp get failed")
	ErrSNMPError        = errors.New("snmp agent returned error")
	ErrNoSNMPData       = errors.New("no snmp system data returned")
	ErrUnrecognized     = errors.New("vendor not recognized")
	errCommunityMissing = errors.New("snmp community is required")
)
