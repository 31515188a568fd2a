/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/blockmesh/InputParameters"
	"github.com/notargets/blockmesh/blockmesh"
)

// PartitionCmd represents the partition command
var PartitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Slice a block description into partitions",
	Long: `Slices the blocks of a description along one axis into one partition
per rank and writes the result as a new block description`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			inputFile, outputFile string
			axis                  int
			ip                    *InputParameters.BlockMeshInput
		)
		if inputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		outputFile, _ = cmd.Flags().GetString("outputFile")
		if axis, err = parseDirection(viper.GetString("direction")); err != nil {
			return
		}
		if ip, err = readInput(inputFile); err != nil {
			return
		}
		var out *InputParameters.BlockMeshInput
		if out, err = RunPartition(ip, viper.GetInt("ranks"), axis); err != nil {
			return
		}
		var data []byte
		if data, err = out.Marshal(); err != nil {
			return
		}
		if len(outputFile) == 0 {
			_, err = os.Stdout.Write(data)
			return
		}
		log.Infof("writing %d blocks to %s", len(out.Blocks), outputFile)
		return os.WriteFile(outputFile, data, 0644)
	},
}

func init() {
	rootCmd.AddCommand(PartitionCmd)
	PartitionCmd.Flags().StringP("inputFile", "I", "", "YAML file with the block description")
	PartitionCmd.Flags().StringP("outputFile", "O", "", "file for the partitioned description, stdout when omitted")
}

// RunPartition slices the blocks of ip into nbPartitions along axis
func RunPartition(ip *InputParameters.BlockMeshInput, nbPartitions, axis int) (out *InputParameters.BlockMeshInput, err error) {
	var bd *blockmesh.BlockData
	if bd, err = ip.ToBlockData(); err != nil {
		return
	}
	if bd, err = blockmesh.PartitionBlocks(bd, nbPartitions, axis); err != nil {
		return
	}
	title := fmt.Sprintf("%s, %d partitions", ip.Title, nbPartitions)
	return InputParameters.FromBlockData(title, bd), nil
}
