package commands

import (
	"fmt"
	"os"

	"sentra/internal/bfir"
	"sentra/internal/buildcache"
	"sentra/internal/pipeline"
	"sentra/internal/report"
	"sentra/internal/toolchain"
)

// BuildCommand compiles a single Brainfuck source file to a native
// executable, the bfc analogue of the teacher's BuildCommand.
func BuildCommand(args []string) error {
	files, flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return fmt.Errorf("usage: bfc build <file.bf> [flags]")
	}
	sourceFile := files[0]
	opts := flags.pipelineOptions()

	if flags.dumpIR {
		result, err := pipeline.Compile(sourceFile, opts)
		if err != nil {
			return err
		}
		fmt.Print(bfir.Dump(result.Residual))
		return nil
	}

	var cache buildcache.Store
	if flags.cacheDSN != "" && !flags.noCache {
		cache, err = buildcache.Open(flags.cacheDSN)
		if err != nil {
			return fmt.Errorf("opening build cache: %w", err)
		}
		defer cache.Close()
	}

	source, err := os.ReadFile(sourceFile)
	if err != nil {
		return err
	}

	var key buildcache.Key
	if cache != nil {
		key = buildcache.NewKey(string(source), opts.OptLevel, opts.StepBudget, flags.llvmOpt)
		if entry, hit, err := cache.Get(key); err == nil && hit {
			if flags.dumpLLVM {
				fmt.Print(entry.LLVMIR)
				return nil
			}
			return emitExecutable(sourceFile, entry.LLVMIR, flags)
		}
	}

	result, err := pipeline.CompileSource(sourceFile, string(source), opts)
	if err != nil {
		return err
	}

	if flags.reportFormat != "" {
		if err := writeReport(report.FromResult(result), flags.reportFormat, os.Stdout); err != nil {
			return err
		}
	}

	llvmIR := result.Module.String()

	if flags.dumpLLVM {
		fmt.Print(llvmIR)
		return nil
	}

	if cache != nil {
		entry := buildcache.Entry{
			Key:         key,
			SourceFile:  sourceFile,
			LLVMIR:      llvmIR,
			ResidualLen: len(result.Residual),
		}
		if err := cache.Put(entry); err != nil {
			return fmt.Errorf("writing build cache: %w", err)
		}
	}

	return emitExecutable(sourceFile, llvmIR, flags)
}

func emitExecutable(sourceFile, llvmIR string, flags compileFlags) error {
	outputPath, err := toolchain.Build(sourceFile, llvmIR, toolchain.Options{
		LLVMOptLevel: flags.llvmOpt,
		OutputPath:   flags.output,
	})
	if err != nil {
		return err
	}
	fmt.Println(outputPath)
	return nil
}
