// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Command orchestrator runs the geoagent Orchestrator service.

The Orchestrator wires the Agent Kernel (internal/kernel) to the Table
Registry, the Document Store, the Template SQL Runner, and the Analysis
Planner/Executor, then exposes one WebSocket session per chat
conversation over the frame contract in internal/transport.

# Usage

	orchestrator [flags]

# Environment Variables

	PORT        - HTTP server port (default: 8081)
	CONFIG_PATH - path to the orchestrator's YAML configuration (default: config.yaml)

# Configuration

The configuration file is a geoagent.io/v1 OrchestratorConfig document
(see internal/config), naming the Postgres connection, the tile server's
base URL, the Anthropic API key and model ids, and the filesystem roots
for the Document Store, prompt templates, and SQL templates. Values may
reference environment variables with ${VAR} or ${VAR:-default}.

# Example

	export CONFIG_PATH="/etc/geoagent/config.yaml"
	./orchestrator
*/
package main
