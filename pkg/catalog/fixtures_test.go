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

package catalog

const iosCPU = `
CPU utilization for five seconds: 95%/2%; one minute: 92%; five minutes: 60%
 PID Runtime(ms)     Invoked      uSecs   5Sec   1Min   5Min TTY Process
 186    19468728    58253916        334  4.31%  3.11%  3.05%   0 IP Input
`

const iosMemory = `
                Head    Total(b)     Used(b)     Free(b)   Lowest(b)  Largest(b)
Processor   6680A250   400000000   100000000   300000000   290000000   280000000
      I/O    C800000    58720256    13658364    45061892    45061892    45061884
`

const iosFlash = `Directory of flash:/

    2  -rwx        1048  Mar 1 1993 00:02:04 +00:00  config.text
    3  -rwx    20000000  Mar 1 1993 00:03:12 +00:00  c2960-lanbasek9-mz.bin

2,000,000 bytes total (1,500,000 bytes free)
`

const iosVersion = `Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M), Version 15.2(4)E10, RELEASE SOFTWARE (fc2)
Technical Support: http://www.cisco.com/techsupport
core-1 uptime is 2 weeks, 1 day, 3 hours, 12 minutes
`

const iosTemp = `SYSTEM TEMPERATURE is OK
System Temperature Value: 38 Degree Celsius
System Temperature State: GREEN
Yellow Threshold : 66 Degree Celsius
`

const iosInterfaces = `Interface              IP-Address      OK? Method Status                Protocol
GigabitEthernet0/1     10.0.0.1        YES NVRAM  up                    up
GigabitEthernet0/2     unassigned      YES unset  administratively down down
GigabitEthernet0/3     unassigned      YES unset  up                    down
`

const iosMAC = `          Mac Address Table
-------------------------------------------

Vlan    Mac Address       Type        Ports
----    -----------       --------    -----
   1    0050.7966.6800    DYNAMIC     Gi0/1
  10    0050.7966.6801    STATIC      Gi0/2
Total Mac Addresses for this criterion: 2
`

const iosRoutes = `Codes: L - local, C - connected, S - static, R - RIP, M - mobile, B - BGP
       D - EIGRP, EX - EIGRP external, O - OSPF, IA - OSPF inter area
Gateway of last resort is 10.0.0.254 to network 0.0.0.0

S*    0.0.0.0/0 [1/0] via 10.0.0.254
      10.0.0.0/8 is variably subnetted, 2 subnets, 2 masks
C        10.0.0.0/24 is directly connected, GigabitEthernet0/1
L        10.0.0.1/32 is directly connected, GigabitEthernet0/1
O        192.168.1.0/24 [110/2] via 10.0.0.2, 00:01:02, GigabitEthernet0/2
`

const iosSubnettedRoutes = `Codes: L - local, C - connected, S - static, R - RIP, M - mobile, B - BGP
       D - EIGRP, EX - EIGRP external, O - OSPF, IA - OSPF inter area
Gateway of last resort is 10.1.1.254 to network 0.0.0.0

S*    0.0.0.0/0 [1/0] via 10.1.1.254
      10.0.0.0/8 is variably subnetted, 2 subnets, 2 masks
C        10.1.1.0/24 is directly connected, GigabitEthernet0/0
L        10.1.1.1/32 is directly connected, GigabitEthernet0/0
      172.16.0.0/24 is subnetted, 2 subnets
O        172.16.1.0 [110/2] via 10.1.1.2, 00:04:11, GigabitEthernet0/0
O IA     172.16.2.0 [110/3] via 10.1.1.2, 00:04:11, GigabitEthernet0/0
`

const iosConfigBody = `!
version 15.2
hostname core-1
!
interface GigabitEthernet0/1
 ip address 10.0.0.1 255.255.255.0
!
end
`

const iosConfig = "Building configuration...\n\nCurrent configuration : 1048 bytes\n! Last configuration change at 08:14:02 UTC Sat Mar 1 2025\n" +
	iosConfigBody

const iosPower = `SW  PID                 Serial#     Status           Sys Pwr  PoE Pwr  Watts
--  ------------------  ----------  ---------------  -------  -------  -----
1A  PWR-C1-350WAC       DCB1234ABCD OK               Good     Good     350
1B  Not Present
`

const iosFans = `Fan 1  3200 RPM  OK
FAN 2 is FAILED
`

const nxosResourcesJSON = `{
  "load_avg_1min": "0.50",
  "cpu_state_user": "3.50",
  "cpu_state_kernel": "2.00",
  "cpu_state_idle": "94.50",
  "memory_usage_total": "16400084",
  "memory_usage_used": "6560034",
  "memory_usage_free": "9840050"
}`

const eosVersionJSON = `{
  "modelName": "DCS-7050SX-64",
  "version": "4.28.3M",
  "memTotal": 8000000,
  "memFree": 2000000,
  "uptime": 86400.75
}`

const junosRE = `Routing Engine status:
  Slot 0:
    Current state                  Master
    Temperature                 38 degrees C / 100 degrees F
    CPU temperature             45 degrees C / 113 degrees F
    Memory utilization          23 percent
    CPU utilization:
      User                       3 percent
      Background                 0 percent
      Kernel                     2 percent
      Interrupt                  0 percent
      Idle                      95 percent
    Uptime                         12 days, 3 hours, 4 minutes, 5 seconds
`

const linuxFree = `              total        used        free      shared  buff/cache   available
Mem:     8000000000  2000000000  1000000000    10000000  5000000000  6000000000
Swap:    2000000000           0  2000000000
`
